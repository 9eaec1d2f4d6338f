// Package ingestion provides pipeline orchestration for retrievable chunks.
//
// The Pipeline type manages the chunk ingestion workflow, including:
//   - Adding chunks to storage with dedup fingerprints
//   - Generating normalized embeddings asynchronously
//   - Tagging chunks against the anchor registry asynchronously
//
// The tagging pass is the only path that mutates a chunk's anchor
// association fields. Processing is performed concurrently using worker
// pools; errors during async processing are logged but do not fail the
// ingestion operation.
package ingestion
