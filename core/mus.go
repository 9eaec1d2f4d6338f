package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted domain types. The field
// order is part of the storage format; append new fields at the end.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

// ChunkMUS serializes Chunks.
var ChunkMUS = chunkMUS{}

// AnchorMUS serializes Anchors.
var AnchorMUS = anchorMUS{}

// GroundingLogEntryMUS serializes GroundingLogEntries.
var GroundingLogEntryMUS = groundingLogEntryMUS{}

// DriftObservationMUS serializes DriftObservations.
var DriftObservationMUS = driftObservationMUS{}

type idMUS struct{}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

// timeMUS encodes timestamps as microseconds since the Unix epoch.
type timeMUS struct{}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

var timeSer = timeMUS{}

// vectorMUS encodes float32 slices with a varint length prefix.
type vectorMUS struct{}

func (vectorMUS) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative vector length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

var vectorSer = vectorMUS{}

// stringsMUS encodes string slices with a varint length prefix.
type stringsMUS struct{}

func (stringsMUS) Size(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func (stringsMUS) Marshal(v []string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringsMUS) Unmarshal(bs []byte) ([]string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative slice length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]string, length)
	for i := 0; i < length; i++ {
		s, m, err := ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = s
	}
	return v, n, nil
}

var stringsSer = stringsMUS{}

// idsMUS encodes ID slices with a varint length prefix.
type idsMUS struct{}

func (idsMUS) Size(v []ID) int {
	size := varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return size
}

func (idsMUS) Marshal(v []ID, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func (idsMUS) Unmarshal(bs []byte) ([]ID, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative slice length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]ID, length)
	for i := 0; i < length; i++ {
		id, m, err := IDMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = id
	}
	return v, n, nil
}

var idsSer = idsMUS{}

type chunkMUS struct{}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.DocumentId) +
		IDMUS.Size(c.ProjectId) +
		ord.String.Size(c.AssistantId) +
		ord.String.Size(c.Text) +
		vectorSer.Size(c.Vector) +
		raw.Float32.Size(c.Score) +
		ord.Bool.Size(c.IsGlossary) +
		ord.String.Size(c.AnchorSlug) +
		stringsSer.Size(c.MatchedAnchors) +
		varint.Uint64.Size(c.Fingerprint) +
		ord.Bool.Size(c.HasOpeningLine) +
		timeSer.Size(c.InsertedAt) +
		timeSer.Size(c.UpdatedAt)
}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += IDMUS.Marshal(c.ProjectId, bs[n:])
	n += ord.String.Marshal(c.AssistantId, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += vectorSer.Marshal(c.Vector, bs[n:])
	n += raw.Float32.Marshal(c.Score, bs[n:])
	n += ord.Bool.Marshal(c.IsGlossary, bs[n:])
	n += ord.String.Marshal(c.AnchorSlug, bs[n:])
	n += stringsSer.Marshal(c.MatchedAnchors, bs[n:])
	n += varint.Uint64.Marshal(c.Fingerprint, bs[n:])
	n += ord.Bool.Marshal(c.HasOpeningLine, bs[n:])
	n += timeSer.Marshal(c.InsertedAt, bs[n:])
	n += timeSer.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (Chunk, int, error) {
	var (
		c   Chunk
		n   int
		m   int
		err error
	)
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return c, n, err
	}
	if c.DocumentId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.ProjectId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.AssistantId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.Score, m, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.IsGlossary, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.AnchorSlug, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.MatchedAnchors, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.Fingerprint, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.HasOpeningLine, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	if c.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return c, n + m, err
	}
	n += m
	return c, n, nil
}

type anchorMUS struct{}

func (anchorMUS) Size(a Anchor) int {
	size := ord.String.Size(a.Slug) +
		ord.String.Size(a.Label) +
		ord.String.Size(a.Description) +
		ord.Bool.Size(a.IsFocusTerm) +
		raw.Float64.Size(a.FallbackScore) +
		varint.Int.Size(int(a.MutationStatus)) +
		ord.String.Size(a.SuggestedLabel) +
		ord.Bool.Size(a.WeightOverride != nil)
	if a.WeightOverride != nil {
		size += raw.Float64.Size(*a.WeightOverride)
	}
	size += varint.Int.Size(int(a.Origin)) +
		ord.Bool.Size(a.AutoSuppressed) +
		timeSer.Size(a.InsertedAt) +
		timeSer.Size(a.UpdatedAt)
	return size
}

func (anchorMUS) Marshal(a Anchor, bs []byte) int {
	n := ord.String.Marshal(a.Slug, bs)
	n += ord.String.Marshal(a.Label, bs[n:])
	n += ord.String.Marshal(a.Description, bs[n:])
	n += ord.Bool.Marshal(a.IsFocusTerm, bs[n:])
	n += raw.Float64.Marshal(a.FallbackScore, bs[n:])
	n += varint.Int.Marshal(int(a.MutationStatus), bs[n:])
	n += ord.String.Marshal(a.SuggestedLabel, bs[n:])
	n += ord.Bool.Marshal(a.WeightOverride != nil, bs[n:])
	if a.WeightOverride != nil {
		n += raw.Float64.Marshal(*a.WeightOverride, bs[n:])
	}
	n += varint.Int.Marshal(int(a.Origin), bs[n:])
	n += ord.Bool.Marshal(a.AutoSuppressed, bs[n:])
	n += timeSer.Marshal(a.InsertedAt, bs[n:])
	n += timeSer.Marshal(a.UpdatedAt, bs[n:])
	return n
}

func (anchorMUS) Unmarshal(bs []byte) (Anchor, int, error) {
	var (
		a   Anchor
		n   int
		m   int
		err error
	)
	if a.Slug, n, err = ord.String.Unmarshal(bs); err != nil {
		return a, n, err
	}
	if a.Label, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if a.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if a.IsFocusTerm, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if a.FallbackScore, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	var status int
	if status, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	a.MutationStatus = MutationStatus(status)
	if a.SuggestedLabel, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	var hasOverride bool
	if hasOverride, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if hasOverride {
		var override float64
		if override, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
			return a, n + m, err
		}
		n += m
		a.WeightOverride = &override
	}
	var origin int
	if origin, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	a.Origin = AnchorOrigin(origin)
	if a.AutoSuppressed, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if a.InsertedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if a.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return a, n + m, err
	}
	n += m
	if err = ValidateAnchor(&a); err != nil {
		return a, n, err
	}
	return a, n, nil
}

type groundingLogEntryMUS struct{}

func (groundingLogEntryMUS) Size(e GroundingLogEntry) int {
	return IDMUS.Size(e.Id) +
		ord.String.Size(e.Query) +
		idsSer.Size(e.UsedChunkIds) +
		raw.Float64.Size(e.RetrievalScore) +
		raw.Float64.Size(e.AdjustedScore) +
		ord.Bool.Size(e.FallbackTriggered) +
		ord.String.Size(e.FallbackReason) +
		stringsSer.Size(e.GlossaryHits) +
		stringsSer.Size(e.GlossaryMisses) +
		ord.String.Size(e.ExpectedAnchor) +
		timeSer.Size(e.Timestamp)
}

func (groundingLogEntryMUS) Marshal(e GroundingLogEntry, bs []byte) int {
	n := IDMUS.Marshal(e.Id, bs)
	n += ord.String.Marshal(e.Query, bs[n:])
	n += idsSer.Marshal(e.UsedChunkIds, bs[n:])
	n += raw.Float64.Marshal(e.RetrievalScore, bs[n:])
	n += raw.Float64.Marshal(e.AdjustedScore, bs[n:])
	n += ord.Bool.Marshal(e.FallbackTriggered, bs[n:])
	n += ord.String.Marshal(e.FallbackReason, bs[n:])
	n += stringsSer.Marshal(e.GlossaryHits, bs[n:])
	n += stringsSer.Marshal(e.GlossaryMisses, bs[n:])
	n += ord.String.Marshal(e.ExpectedAnchor, bs[n:])
	n += timeSer.Marshal(e.Timestamp, bs[n:])
	return n
}

func (groundingLogEntryMUS) Unmarshal(bs []byte) (GroundingLogEntry, int, error) {
	var (
		e   GroundingLogEntry
		n   int
		m   int
		err error
	)
	if e.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return e, n, err
	}
	if e.Query, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.UsedChunkIds, m, err = idsSer.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.RetrievalScore, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.AdjustedScore, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.FallbackTriggered, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.FallbackReason, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.GlossaryHits, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.GlossaryMisses, m, err = stringsSer.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.ExpectedAnchor, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.Timestamp, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	return e, n, nil
}

type driftObservationMUS struct{}

func (driftObservationMUS) Size(o DriftObservation) int {
	return ord.String.Size(o.AnchorSlug) +
		timeSer.Size(o.Day) +
		raw.Float64.Size(o.AvgScore) +
		raw.Float64.Size(o.FallbackRate) +
		varint.Int.Size(o.SampleSize)
}

func (driftObservationMUS) Marshal(o DriftObservation, bs []byte) int {
	n := ord.String.Marshal(o.AnchorSlug, bs)
	n += timeSer.Marshal(o.Day, bs[n:])
	n += raw.Float64.Marshal(o.AvgScore, bs[n:])
	n += raw.Float64.Marshal(o.FallbackRate, bs[n:])
	n += varint.Int.Marshal(o.SampleSize, bs[n:])
	return n
}

func (driftObservationMUS) Unmarshal(bs []byte) (DriftObservation, int, error) {
	var (
		o   DriftObservation
		n   int
		m   int
		err error
	)
	if o.AnchorSlug, n, err = ord.String.Unmarshal(bs); err != nil {
		return o, n, err
	}
	if o.Day, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return o, n + m, err
	}
	n += m
	if o.AvgScore, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return o, n + m, err
	}
	n += m
	if o.FallbackRate, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return o, n + m, err
	}
	n += m
	if o.SampleSize, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return o, n + m, err
	}
	n += m
	return o, n, nil
}
