package query

import (
	"github.com/poiesic/docket/core"
)

// Monitor provides hooks to observe the answering process.
// Implement this interface to track intermediate steps and results of Ask.
type Monitor interface {
	Start(question string)
	AfterLabelSelection(labels []*core.Label, usedFallback bool)
	AfterChunkRetrieval(chunks []*core.ChunkWithLabels)
	Finish(answer *Answer)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterLabelSelection(_ []*core.Label, _ bool)   {}
func (n *noopMonitor) AfterChunkRetrieval(_ []*core.ChunkWithLabels) {}
func (n *noopMonitor) Finish(_ *Answer)                              {}
