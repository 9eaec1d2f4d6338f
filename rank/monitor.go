package rank

import "github.com/poiesic/grounder/core"

// Monitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate steps and results during ranking.
type Monitor interface {
	Start(query string)
	AfterEmbedding(dimensions int)
	AfterCandidates(count int)
	AfterQueryAnchorMatch(matched map[string]core.MatchMethod)
	Scored(chunkId core.ID, raw, boosted float64)
	ForcedInclude(chunkId core.ID)
	Fallback(reason string)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                      {}
func (n *noopMonitor) AfterEmbedding(_ int)                                {}
func (n *noopMonitor) AfterCandidates(_ int)                               {}
func (n *noopMonitor) AfterQueryAnchorMatch(_ map[string]core.MatchMethod) {}
func (n *noopMonitor) Scored(_ core.ID, _, _ float64)                      {}
func (n *noopMonitor) ForcedInclude(_ core.ID)                             {}
func (n *noopMonitor) Fallback(_ string)                                   {}
func (n *noopMonitor) Finish(_ []*Result)                                  {}
