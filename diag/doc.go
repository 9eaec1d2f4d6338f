// Package diag implements the retrieval diagnostics replay harness.
//
// The harness asks the ranker the one question each anchor should be
// able to answer, namely its own label, and records whether the anchor's
// chunks come back. The aggregated pass rate is a cheap regression gate:
// on an unchanged corpus a pass-rate drop between two runs means a
// ranking change moved results, not the data.
package diag
