package publisher

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

// NodeFilter matches node ids against glob patterns. Empty patterns match
// every node.
type NodeFilter struct {
	globs []glob.Glob
}

// NewNodeFilter compiles the configured node patterns.
func NewNodeFilter(patterns []string) (*NodeFilter, error) {
	filter := &NodeFilter{globs: make([]glob.Glob, 0, len(patterns))}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid node pattern %q: %w", pattern, err)
		}
		filter.globs = append(filter.globs, g)
	}
	return filter, nil
}

// Match returns true if the node id matches any configured pattern.
func (f *NodeFilter) Match(nodeID string) bool {
	if len(f.globs) == 0 {
		return true
	}
	for _, g := range f.globs {
		if g.Match(nodeID) {
			return true
		}
	}
	return false
}

// Filtered wraps a publisher with a node filter. Updates for nodes outside
// the filter are dropped without an error.
type Filtered struct {
	inner  Publisher
	filter *NodeFilter
}

// NewFiltered wraps the publisher. A nil filter passes everything through.
func NewFiltered(inner Publisher, filter *NodeFilter) *Filtered {
	return &Filtered{inner: inner, filter: filter}
}

func (f *Filtered) Name() string                   { return f.inner.Name() }
func (f *Filtered) Responsibility() Responsibility { return f.inner.Responsibility() }
func (f *Filtered) Close() error                   { return f.inner.Close() }

// Publish forwards matching updates to the wrapped publisher.
func (f *Filtered) Publish(ctx context.Context, msg Message) error {
	if f.filter != nil && !f.filter.Match(msg.NodeID) {
		log.Debug().
			Str("publisher", f.inner.Name()).
			Str("node_id", msg.NodeID).
			Msg("Node filtered, skipping publish")
		return nil
	}
	return f.inner.Publish(ctx, msg)
}
