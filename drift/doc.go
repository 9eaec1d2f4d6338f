// Package drift implements batch drift detection over the grounding log.
//
// The Analyzer buckets each anchor's log entries by UTC calendar day,
// computes the per-day average score and fallback rate, and derives a
// linear slope between the first and last day of the window. An anchor
// whose confidence is both trending down and below the score floor gets
// a replacement-label suggestion from an external text-generation
// collaborator and is flipped to a pending mutation for review.
//
// Anchors are processed concurrently on a bounded worker pool; each
// anchor's computation is independent and a single failing anchor never
// aborts the batch. Per-anchor atomicity of the mutation flip is
// delegated to storage.AnchorRepository.RequestMutation.
package drift
