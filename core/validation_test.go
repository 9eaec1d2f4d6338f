package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:  "valid chunk",
			chunk: &Chunk{Text: "A zk rollup batches transactions."},
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{},
			wantErr: ErrEmptyText,
		},
		{
			name:  "empty vector is valid before embedding",
			chunk: &Chunk{Text: "text", Vector: nil},
		},
		{
			name:  "zero id is valid from sequences",
			chunk: &Chunk{Id: 0, Text: "text"},
		},
		{
			name:  "past timestamps are valid",
			chunk: &Chunk{Text: "text", InsertedAt: time.Now().UTC().Add(-time.Hour), UpdatedAt: time.Now().UTC()},
		},
		{
			name:    "future inserted timestamp",
			chunk:   &Chunk{Text: "text", InsertedAt: time.Now().UTC().Add(time.Hour)},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "future updated timestamp",
			chunk:   &Chunk{Text: "text", UpdatedAt: time.Now().UTC().Add(time.Hour)},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAnchor(t *testing.T) {
	tests := []struct {
		name    string
		anchor  *Anchor
		wantErr error
	}{
		{
			name:   "valid anchor",
			anchor: &Anchor{Slug: "zk-rollup", Label: "zk rollup", Origin: OriginSeed},
		},
		{
			name:   "label is optional",
			anchor: &Anchor{Slug: "zk-rollup"},
		},
		{
			name:    "nil anchor",
			anchor:  nil,
			wantErr: ErrInvalidAnchor,
		},
		{
			name:    "empty slug",
			anchor:  &Anchor{Label: "zk rollup"},
			wantErr: ErrEmptySlug,
		},
		{
			name: "pending mutation with suggestion",
			anchor: &Anchor{
				Slug:           "zk-rollup",
				MutationStatus: MutationPending,
				SuggestedLabel: "zero knowledge rollup",
			},
		},
		{
			name: "pending mutation without suggestion",
			anchor: &Anchor{
				Slug:           "zk-rollup",
				MutationStatus: MutationPending,
			},
			wantErr: ErrPendingWithoutSuggestion,
		},
		{
			name: "unknown mutation status",
			anchor: &Anchor{
				Slug:           "zk-rollup",
				MutationStatus: MutationStatus(42),
			},
			wantErr: ErrInvalidMutationStatus,
		},
		{
			name: "unknown origin",
			anchor: &Anchor{
				Slug:   "zk-rollup",
				Origin: AnchorOrigin(42),
			},
			wantErr: ErrInvalidOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnchor(tt.anchor)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAnchor() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAnchor() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *GroundingLogEntry
		wantErr error
	}{
		{
			name:  "valid entry",
			entry: &GroundingLogEntry{Query: "what is a zk rollup"},
		},
		{
			name:  "zero timestamp defaults later",
			entry: &GroundingLogEntry{Query: "q", Timestamp: time.Time{}},
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidLogEntry,
		},
		{
			name:    "empty query",
			entry:   &GroundingLogEntry{},
			wantErr: ErrEmptyQuery,
		},
		{
			name: "future timestamp",
			entry: &GroundingLogEntry{
				Query:     "q",
				Timestamp: time.Now().UTC().Add(time.Hour),
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateLogEntry() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateLogEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Time{}) {
		t.Error("IsValidTimestamp() zero timestamp should be valid")
	}
	if !IsValidTimestamp(time.Now().UTC()) {
		t.Error("IsValidTimestamp() current timestamp should be valid")
	}
	if IsValidTimestamp(time.Now().UTC().Add(time.Hour)) {
		t.Error("IsValidTimestamp() future timestamp should be invalid")
	}
}
