package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestFingerprintText(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		wantSame bool
	}{
		{
			name:     "identical text",
			a:        "A zk rollup batches transactions.",
			b:        "A zk rollup batches transactions.",
			wantSame: true,
		},
		{
			name:     "case and whitespace reflow",
			a:        "A zk rollup batches transactions.",
			b:        "a zk  rollup\nbatches transactions.",
			wantSame: true,
		},
		{
			name:     "different text",
			a:        "A zk rollup batches transactions.",
			b:        "A validator attests blocks.",
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := FingerprintText(tt.a)
			fb := FingerprintText(tt.b)

			if (fa == fb) != tt.wantSame {
				t.Errorf("FingerprintText() same = %v, want %v", fa == fb, tt.wantSame)
			}
		})
	}
}

func TestAnchor_Term(t *testing.T) {
	tests := []struct {
		name   string
		anchor Anchor
		want   string
	}{
		{
			name:   "label wins",
			anchor: Anchor{Slug: "zk-rollup", Label: "zero knowledge rollup"},
			want:   "zero knowledge rollup",
		},
		{
			name:   "slug fallback with dashes",
			anchor: Anchor{Slug: "zk-rollup"},
			want:   "zk rollup",
		},
		{
			name:   "slug fallback with underscores",
			anchor: Anchor{Slug: "memory_token"},
			want:   "memory token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.anchor.Term(); got != tt.want {
				t.Errorf("Anchor.Term() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnchor_EffectiveBoost(t *testing.T) {
	override := 0.3

	tests := []struct {
		name   string
		anchor Anchor
		global float64
		want   float64
	}{
		{
			name:   "global constant",
			anchor: Anchor{Slug: "a"},
			global: 0.1,
			want:   0.1,
		},
		{
			name:   "override wins",
			anchor: Anchor{Slug: "a", WeightOverride: &override},
			global: 0.1,
			want:   0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.anchor.EffectiveBoost(tt.global); got != tt.want {
				t.Errorf("Anchor.EffectiveBoost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroundingLogEntry_References(t *testing.T) {
	entry := GroundingLogEntry{
		ExpectedAnchor: "expected",
		GlossaryHits:   []string{"hit-a", "hit-b"},
		GlossaryMisses: []string{"miss-a"},
	}

	tests := []struct {
		slug string
		want bool
	}{
		{"expected", true},
		{"hit-a", true},
		{"hit-b", true},
		{"miss-a", true},
		{"absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := entry.References(tt.slug); got != tt.want {
				t.Errorf("References(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestDayOf(t *testing.T) {
	// 22:30 at UTC-4 is 02:30 UTC the next day
	local := time.Date(2025, 6, 1, 22, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	day := DayOf(local)
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !day.Equal(want) || day.Location() != time.UTC {
		t.Errorf("DayOf() = %v, want %v", day, want)
	}

	// Same-day timestamps collapse onto one key
	later := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)
	if !DayOf(later).Equal(want) {
		t.Errorf("DayOf() same-day = %v, want %v", DayOf(later), want)
	}
}
