/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package tablecache provides a read-through cache of per-table metadata.
package tablecache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/ms/log"
)

const (
	// DefaultExpiration is used to instruct calls to Add to use the default
	// cache expiration.
	DefaultExpiration = cache.DefaultExpiration
	// NoExpiration is used to create caches that do not expire items by
	// default.
	NoExpiration = cache.NoExpiration
)

// Config is the configuration for a cache.
type Config struct {
	// DefaultExpiration is how long to keep values in the cache. Use the
	// sentinel NoExpiration to keep them until invalidated.
	DefaultExpiration time.Duration `json:"default_expiration"`
	// CleanupInterval is how often to remove expired values from the cache.
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// Cache maps table names to values. On a miss, the fill func is called;
// concurrent misses on the same table share a single fill.
type Cache[Value any] struct {
	cache    *cache.Cache
	fills    singleflight.Group
	fillFunc func(ctx context.Context, table string) (Value, error)
}

// New creates a cache filled by fillFunc.
func New[Value any](fillFunc func(ctx context.Context, table string) (Value, error), cfg Config) *Cache[Value] {
	return &Cache[Value]{
		cache:    cache.New(cfg.DefaultExpiration, cfg.CleanupInterval),
		fillFunc: fillFunc,
	}
}

// Add stores val for table, replacing any cached value.
func (c *Cache[Value]) Add(table string, val Value, d time.Duration) {
	c.cache.Set(table, val, d)
}

// Peek returns the cached value for table without filling it.
func (c *Cache[Value]) Peek(table string) (Value, bool) {
	v, exp, ok := c.cache.GetWithExpiration(table)
	if !ok || (!exp.IsZero() && exp.Before(time.Now())) {
		var zero Value
		return zero, false
	}
	return v.(Value), true
}

// Get returns the value for table, filling the cache on a miss. Fill
// errors are returned and not cached.
func (c *Cache[Value]) Get(ctx context.Context, table string) (Value, error) {
	if v, ok := c.Peek(table); ok {
		return v, nil
	}
	v, err, _ := c.fills.Do(table, func() (any, error) {
		val, err := c.fillFunc(ctx, table)
		if err != nil {
			return nil, err
		}
		c.cache.Set(table, val, DefaultExpiration)
		return val, nil
	})
	if err != nil {
		log.WarnS("filling placement cache failed", "table", table, "error", err)
		var zero Value
		return zero, err
	}
	return v.(Value), nil
}

// Invalidate drops the cached value for table.
func (c *Cache[Value]) Invalidate(table string) {
	c.cache.Delete(table)
}

// Len returns the number of cached values, expired ones not yet evicted included.
func (c *Cache[Value]) Len() int {
	return c.cache.ItemCount()
}

// PlacementSource loads the placement of a table.
type PlacementSource interface {
	GetTablePlacement(ctx context.Context, table string) (*cluster.TablePlacement, error)
}

// PlacementCache caches table placements in front of a PlacementSource.
type PlacementCache struct {
	*Cache[*cluster.TablePlacement]
}

// NewPlacementCache returns a PlacementCache reading through to src.
func NewPlacementCache(src PlacementSource, cfg Config) *PlacementCache {
	return &PlacementCache{Cache: New(src.GetTablePlacement, cfg)}
}

// LookupPlacement returns the placement of table.
func (pc *PlacementCache) LookupPlacement(ctx context.Context, table string) (*cluster.TablePlacement, error) {
	return pc.Get(ctx, table)
}
