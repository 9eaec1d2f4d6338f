package storage

import (
	"testing"
	"time"

	"github.com/poiesic/grounder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "minimal chunk",
			chunk: &core.Chunk{
				Id:         core.ID(1),
				DocumentId: core.ID(7),
				Text:       "A zk rollup batches transactions.",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "enriched chunk",
			chunk: &core.Chunk{
				Id:             core.ID(2),
				DocumentId:     core.ID(7),
				ProjectId:      core.ID(3),
				AssistantId:    "asst-1",
				Text:           "Validators secure the rollup.",
				Vector:         []float32{0.6, 0.8, 0},
				Score:          0.91,
				IsGlossary:     true,
				AnchorSlug:     "zk-rollup",
				MatchedAnchors: []string{"zk-rollup", "validator"},
				Fingerprint:    core.FingerprintText("Validators secure the rollup."),
				HasOpeningLine: true,
				InsertedAt:     now,
				UpdatedAt:      now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chunk, decoded)
		})
	}
}

func TestMarshalUnmarshalAnchor(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	override := 0.25

	tests := []struct {
		name   string
		anchor *core.Anchor
	}{
		{
			name: "minimal anchor",
			anchor: &core.Anchor{
				Slug:       "zk-rollup",
				Origin:     core.OriginSeed,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "anchor with weight override",
			anchor: &core.Anchor{
				Slug:           "zk-rollup",
				Label:          "zk rollup",
				Description:    "A layer-2 scaling construction.",
				IsFocusTerm:    true,
				FallbackScore:  0.42,
				WeightOverride: &override,
				Origin:         core.OriginManual,
				InsertedAt:     now,
				UpdatedAt:      now,
			},
		},
		{
			name: "anchor with pending mutation",
			anchor: &core.Anchor{
				Slug:           "zk-rollup",
				Label:          "zk rollup",
				MutationStatus: core.MutationPending,
				SuggestedLabel: "zero knowledge rollup",
				Origin:         core.OriginRagBoost,
				InsertedAt:     now,
				UpdatedAt:      now,
			},
		},
		{
			name: "suppressed anchor",
			anchor: &core.Anchor{
				Slug:           "stale-term",
				AutoSuppressed: true,
				Origin:         core.OriginMemoryToken,
				InsertedAt:     now,
				UpdatedAt:      now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalAnchor(tt.anchor)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalAnchor(data)
			require.NoError(t, err)
			assert.Equal(t, tt.anchor, decoded)
		})
	}
}

func TestMarshalUnmarshalLogEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := &core.GroundingLogEntry{
		Id:                core.ID(9),
		Query:             "what is a zk rollup",
		UsedChunkIds:      []core.ID{1, 2, 8},
		RetrievalScore:    0.88,
		AdjustedScore:     0.98,
		FallbackTriggered: true,
		FallbackReason:    "low score",
		GlossaryHits:      []string{"zk-rollup"},
		GlossaryMisses:    []string{"validator"},
		ExpectedAnchor:    "zk-rollup",
		Timestamp:         now,
	}

	data := MarshalLogEntry(entry)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalLogEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestMarshalUnmarshalObservation(t *testing.T) {
	obs := &core.DriftObservation{
		AnchorSlug:   "zk-rollup",
		Day:          core.DayOf(time.Now()),
		AvgScore:     0.37,
		FallbackRate: 0.5,
		SampleSize:   4,
	}

	data := MarshalObservation(obs)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalObservation(data)
	require.NoError(t, err)
	assert.Equal(t, obs, decoded)
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ID(1),
		DocumentId: core.ID(2),
		Text:       "truncate me",
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	data := MarshalChunk(chunk)

	_, err := UnmarshalChunk(data[:len(data)/2])
	assert.Error(t, err)
}
