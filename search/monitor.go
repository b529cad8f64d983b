package search

import "github.com/veritom/knowbase/core"

// SearchMonitor provides hooks to observe the query pipeline.
// Implement this interface to track intermediate steps and results.
type SearchMonitor interface {
	Start(query string)
	EnterStage(stage Stage)
	AfterCollect(collection string, candidates []*core.Candidate)
	AfterDedup(candidates []*core.Candidate)
	AfterRerank(degraded bool)
	TicketBoost(documentID string)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor.
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) EnterStage(_ Stage)                            {}
func (n *noopMonitor) AfterCollect(_ string, _ []*core.Candidate)    {}
func (n *noopMonitor) AfterDedup(_ []*core.Candidate)                {}
func (n *noopMonitor) AfterRerank(_ bool)                            {}
func (n *noopMonitor) TicketBoost(_ string)                          {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                 {}
