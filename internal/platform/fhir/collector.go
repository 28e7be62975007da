package fhir

import (
	"context"
	"fmt"
	"time"
)

// ResourceFetcher returns the bundle entries of one resource type for subject.
type ResourceFetcher func(ctx context.Context, subject string) ([]BundleEntry, error)

// Collector aggregates entries from registered fetchers into a collection
// Bundle, in registration order.
type Collector struct {
	fetchers map[string]ResourceFetcher
	order    []string
	now      func() time.Time
}

func NewCollector() *Collector {
	return &Collector{
		fetchers: make(map[string]ResourceFetcher),
		now:      time.Now,
	}
}

// Register adds a fetcher for resourceType. Registering the same type again
// replaces the fetcher but keeps its original position.
func (c *Collector) Register(resourceType string, fn ResourceFetcher) {
	if _, exists := c.fetchers[resourceType]; !exists {
		c.order = append(c.order, resourceType)
	}
	c.fetchers[resourceType] = fn
}

// ResourceTypes returns the registered types in output order.
func (c *Collector) ResourceTypes() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Collect runs every fetcher for subject. Any fetcher error aborts the export.
func (c *Collector) Collect(ctx context.Context, subject string) (*Bundle, error) {
	var entries []BundleEntry
	for _, rt := range c.order {
		got, err := c.fetchers[rt](ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", rt, err)
		}
		entries = append(entries, got...)
	}
	return NewCollectionBundle(entries, c.now()), nil
}
