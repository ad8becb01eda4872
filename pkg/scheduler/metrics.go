/*
Copyright 2024 KubeNexus Authors.

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

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulingAttempts tracks scheduling outcomes by result
	// ("bound", "bind_failed", "failed") and workload type.
	SchedulingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubenexus_scheduling_attempts_total",
			Help: "Total number of scheduling attempts, by result and workload type",
		},
		[]string{"result", "workload_type"},
	)

	// PreemptionsTotal tracks gang-preemption outcomes.
	PreemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubenexus_preemptions_total",
			Help: "Total number of gang preemption attempts, by result",
		},
		[]string{"result"},
	)

	// DecisionDuration tracks how long each step of a scheduling
	// decision takes, by operation ("select_node", "preempt", "bind").
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kubenexus_scheduling_decision_duration_seconds",
			Help:    "Duration of scheduling decision steps, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// FreeNodes tracks the current number of free nodes in the cluster,
	// sampled at each node selection.
	FreeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kubenexus_free_nodes",
			Help: "Current number of free (unoccupied) nodes",
		},
	)
)

// Recorder adapts the package-level metrics above to the
// scheduling.Recorder interface.
type Recorder struct{}

// ObserveSchedulingAttempt records one scheduling outcome.
func (Recorder) ObserveSchedulingAttempt(result, workloadType string) {
	SchedulingAttempts.WithLabelValues(result, workloadType).Inc()
}

// ObservePreemption records one preemption outcome.
func (Recorder) ObservePreemption(result string) {
	PreemptionsTotal.WithLabelValues(result).Inc()
}

// ObserveFreeNodes records the current free-node count.
func (Recorder) ObserveFreeNodes(count int) {
	FreeNodes.Set(float64(count))
}

// ObserveDecisionDuration records the duration of one decision step.
func (Recorder) ObserveDecisionDuration(operation string, seconds float64) {
	DecisionDuration.WithLabelValues(operation).Observe(seconds)
}
