package search

import (
	"github.com/poiesic/verdict/core"
)

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(collection, query string)
	AfterEmbedding(dimensions int)
	AfterVectorSearch(hits []*core.ScoredRecord)
	VerbatimHit(result *Result)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                      {}
func (n *noopMonitor) AfterEmbedding(_ int)                   {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ScoredRecord) {}
func (n *noopMonitor) VerbatimHit(_ *Result)                  {}
func (n *noopMonitor) Finish(_ []*Result)                     {}
