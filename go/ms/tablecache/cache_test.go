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

package tablecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitess.io/multistage/go/ms/cluster"
	"vitess.io/multistage/go/test/utils"
)

func TestMain(m *testing.M) {
	utils.VerifyTestMain(m)
}

func TestCacheFillsOnMiss(t *testing.T) {
	var fills atomic.Int32
	c := New(func(_ context.Context, table string) (int, error) {
		fills.Add(1)
		return len(table), nil
	}, Config{DefaultExpiration: NoExpiration})

	ctx := context.Background()
	v, err := c.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	v, err = c.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.EqualValues(t, 1, fills.Load())

	c.Invalidate("orders")
	_, ok := c.Peek("orders")
	assert.False(t, ok)
	_, err = c.Get(ctx, "orders")
	require.NoError(t, err)
	assert.EqualValues(t, 2, fills.Load())
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	var fails atomic.Bool
	fails.Store(true)
	c := New(func(context.Context, string) (string, error) {
		if fails.Load() {
			return "", errors.New("unavailable")
		}
		return "ok", nil
	}, Config{DefaultExpiration: time.Minute})

	_, err := c.Get(context.Background(), "t")
	assert.ErrorContains(t, err, "unavailable")
	assert.Equal(t, 0, c.Len())

	fails.Store(false)
	v, err := c.Get(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCacheExpiration(t *testing.T) {
	c := New(func(context.Context, string) (int, error) { return 1, nil }, Config{DefaultExpiration: time.Minute})
	c.Add("t", 5, time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok := c.Peek("t")
	assert.False(t, ok)
}

func TestCacheConcurrentMissesShareFill(t *testing.T) {
	var fills atomic.Int32
	release := make(chan struct{})
	c := New(func(context.Context, string) (int, error) {
		fills.Add(1)
		<-release
		return 42, nil
	}, Config{DefaultExpiration: NoExpiration})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "t")
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, fills.Load(), int32(8))
	_, ok := c.Peek("t")
	assert.True(t, ok)
}

type fakeSource map[string]*cluster.TablePlacement

func (f fakeSource) GetTablePlacement(_ context.Context, table string) (*cluster.TablePlacement, error) {
	if p, ok := f[table]; ok {
		return p, nil
	}
	return nil, errors.New("unknown table " + table)
}

func TestPlacementCache(t *testing.T) {
	src := fakeSource{"orders": {Table: "orders", PartitionColumn: "id", NumPartitions: 2}}
	pc := NewPlacementCache(src, Config{DefaultExpiration: NoExpiration})

	p, err := pc.LookupPlacement(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "id", p.PartitionColumn)

	_, err = pc.LookupPlacement(context.Background(), "missing")
	assert.ErrorContains(t, err, "unknown table missing")
}
