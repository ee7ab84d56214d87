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

package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannerStats(t *testing.T) {
	ps := NewPlannerStats()
	reg := prometheus.NewRegistry()
	require.NoError(t, ps.Register(reg))

	ps.RecordPlan(PlanOK, 3, 5*time.Millisecond)
	ps.RecordPlan(PlanFailed, 0, time.Millisecond)
	ps.RecordExchange("HASH_DISTRIBUTED")
	ps.RecordExchange("HASH_DISTRIBUTED")
	ps.RecordExchange("RANDOM_DISTRIBUTED")
	ps.RecordColocatedRewrites(2)
	ps.RecordColocatedRewrites(0)
	ps.RecordOptimizerFallback()

	assert.Equal(t, 1.0, testutil.ToFloat64(ps.plans.WithLabelValues(PlanOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.plans.WithLabelValues(PlanFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(ps.exchanges.WithLabelValues("HASH_DISTRIBUTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.exchanges.WithLabelValues("RANDOM_DISTRIBUTED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ps.colocatedRewrites))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.optimizerFallbacks))
	assert.Equal(t, 1, testutil.CollectAndCount(ps.stagesPerPlan))

	// Registering twice on the same registry is refused.
	assert.Error(t, ps.Register(reg))
}

func TestNilPlannerStats(t *testing.T) {
	var ps *PlannerStats
	assert.NotPanics(t, func() {
		ps.RecordPlan(PlanOK, 2, time.Millisecond)
		ps.RecordExchange("SINGLETON")
		ps.RecordColocatedRewrites(1)
		ps.RecordOptimizerFallback()
	})
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
