// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/match"
	"github.com/poiesic/grounder/storage"
)

// taggingProcessor runs the anchor matching pass over chunks. This is
// the only code that mutates IsGlossary, MatchedAnchors and the primary
// AnchorSlug.
type taggingProcessor struct {
	chunkRepository  storage.ChunkRepository
	anchorRepository storage.AnchorRepository
	matcher          *match.Matcher
	logger           *slog.Logger
}

var _ processor = (*taggingProcessor)(nil)

// newTaggingProcessor creates a new anchor tagging processor.
func newTaggingProcessor(
	chunkRepository storage.ChunkRepository,
	anchorRepository storage.AnchorRepository,
	matcher *match.Matcher,
	logger *slog.Logger,
) (processor, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if anchorRepository == nil {
		return nil, ErrAnchorRepositoryRequired
	}
	if matcher == nil {
		matcher = match.NewMatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taggingProcessor{
		chunkRepository:  chunkRepository,
		anchorRepository: anchorRepository,
		matcher:          matcher,
		logger:           logger.With("processor", "tagging"),
	}, nil
}

// process matches the registry against the specified chunks' text.
func (tp *taggingProcessor) process(ctx context.Context, ids ...core.ID) error {
	tp.logger.Info("tagging chunks against anchor registry", "chunks", len(ids))

	anchors, err := tp.anchorRepository.ListAnchors(ctx, false)
	if err != nil {
		tp.logger.Error("error listing anchors", "err", err)
		return err
	}
	if len(anchors) == 0 {
		return nil
	}

	slices.Sort(ids)

	// Fresh reads inside the update transaction keep a concurrently
	// written vector intact.
	updated, err := tp.chunkRepository.MutateChunks(ctx, func(chunk *core.Chunk) bool {
		return tp.tagChunk(chunk, anchors)
	}, ids...)
	if err != nil {
		tp.logger.Error("error updating tagged chunks", "err", err)
		return err
	}

	tp.logger.Debug("tagged chunks", "updated", len(updated))
	return nil
}

// tagChunk updates a chunk's anchor association fields in place.
// Reports whether anything changed. An existing primary anchor is kept;
// otherwise the first matching focus anchor wins, falling back to the
// first match of any kind.
func (tp *taggingProcessor) tagChunk(chunk *core.Chunk, anchors []*core.Anchor) bool {
	var matched []string
	var firstFocus, firstAny string

	for _, anchor := range anchors {
		method, ok := tp.matcher.Match(anchor, chunk.Text)
		if !ok {
			continue
		}
		matched = append(matched, anchor.Slug)
		if firstAny == "" {
			firstAny = anchor.Slug
		}
		if firstFocus == "" && anchor.IsFocusTerm {
			firstFocus = anchor.Slug
		}
		tp.logger.Debug("anchor matched chunk",
			"slug", anchor.Slug, "chunk", chunk.Id, "method", method.String())
	}

	if len(matched) == 0 {
		return false
	}

	changed := !slices.Equal(chunk.MatchedAnchors, matched)
	chunk.MatchedAnchors = matched

	if !chunk.IsGlossary {
		chunk.IsGlossary = true
		changed = true
	}

	if chunk.AnchorSlug == "" {
		primary := firstFocus
		if primary == "" {
			primary = firstAny
		}
		chunk.AnchorSlug = primary
		changed = true
	}

	return changed
}
