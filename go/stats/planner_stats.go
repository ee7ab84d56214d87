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

// Package stats holds the prometheus metrics exported by the planner.
package stats

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Plan results recorded by PlannerStats.RecordPlan.
const (
	PlanOK     = "ok"
	PlanFailed = "failed"
)

// PlannerStats groups the planner metrics. A nil *PlannerStats records
// nothing, so callers never need to check.
type PlannerStats struct {
	plans              *prometheus.CounterVec
	exchanges          *prometheus.CounterVec
	colocatedRewrites  prometheus.Counter
	optimizerFallbacks prometheus.Counter
	stagesPerPlan      prometheus.Histogram
	planningLatency    prometheus.Histogram
}

// NewPlannerStats creates an unregistered set of planner metrics.
func NewPlannerStats() *PlannerStats {
	return &PlannerStats{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msq",
			Name:      "plans_total",
			Help:      "Number of planning calls by result.",
		}, []string{"result"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msq",
			Name:      "exchanges_total",
			Help:      "Number of exchange pairs created, by distribution type.",
		}, []string{"distribution"}),
		colocatedRewrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msq",
			Name:      "colocated_rewrites_total",
			Help:      "Number of hash exchanges rewritten into colocated form.",
		}),
		optimizerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msq",
			Name:      "optimizer_fallbacks_total",
			Help:      "Number of plans returned unoptimized because the colocation pass failed.",
		}),
		stagesPerPlan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "msq",
			Name:      "stages_per_plan",
			Help:      "Distribution of the number of stages in a plan, client stage included.",
			Buckets:   []float64{2, 3, 4, 6, 8, 12, 16, 32},
		}),
		planningLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "msq",
			Name:      "planning_seconds",
			Help:      "Time spent building a dispatchable plan.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Register registers every metric with reg.
func (ps *PlannerStats) Register(reg prometheus.Registerer) error {
	for _, c := range ps.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PlannerStats) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ps.plans,
		ps.exchanges,
		ps.colocatedRewrites,
		ps.optimizerFallbacks,
		ps.stagesPerPlan,
		ps.planningLatency,
	}
}

// RecordPlan records the outcome of one planning call. stages is ignored
// for failed plans.
func (ps *PlannerStats) RecordPlan(result string, stages int, elapsed time.Duration) {
	if ps == nil {
		return
	}
	ps.plans.WithLabelValues(result).Inc()
	ps.planningLatency.Observe(elapsed.Seconds())
	if result == PlanOK {
		ps.stagesPerPlan.Observe(float64(stages))
	}
}

// RecordExchange counts one exchange pair of the given distribution.
func (ps *PlannerStats) RecordExchange(distribution string) {
	if ps == nil {
		return
	}
	ps.exchanges.WithLabelValues(distribution).Inc()
}

// RecordColocatedRewrites counts n rewritten exchanges.
func (ps *PlannerStats) RecordColocatedRewrites(n int) {
	if ps == nil || n <= 0 {
		return
	}
	ps.colocatedRewrites.Add(float64(n))
}

// RecordOptimizerFallback counts one plan that kept its unoptimized form.
func (ps *PlannerStats) RecordOptimizerFallback() {
	if ps == nil {
		return
	}
	ps.optimizerFallbacks.Inc()
}

var (
	defaultStats *PlannerStats
	defaultOnce  sync.Once
)

// Default returns the process-wide planner metrics, registered with the
// default prometheus registry on first use.
func Default() *PlannerStats {
	defaultOnce.Do(func() {
		defaultStats = NewPlannerStats()
		// Registration only fails on duplicate names, which cannot happen
		// behind the sync.Once.
		_ = defaultStats.Register(prometheus.DefaultRegisterer)
	})
	return defaultStats
}
