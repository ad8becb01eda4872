/*
Copyright 2026 KubeNexus Authors.

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

// Package scheduling implements the scheduler's main control loop:
// watch pending pods naming this scheduler, bind each to a free node,
// and when none is free, preempt a lower-priority gang and retry once.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"
	klog "k8s.io/klog/v2"

	"github.com/kubenexus/foobar-scheduler/pkg/clusterapi"
	"github.com/kubenexus/foobar-scheduler/pkg/gangdiscovery"
	"github.com/kubenexus/foobar-scheduler/pkg/nodediscovery"
	"github.com/kubenexus/foobar-scheduler/pkg/podutil"
	"github.com/kubenexus/foobar-scheduler/pkg/preemption"
)

// ErrNoNodesAvailable is returned by selectNode when no node is free.
var ErrNoNodesAvailable = errors.New("no nodes available")

// Rand is the minimal randomness surface Loop needs, letting tests make
// node selection deterministic and letting callers observe/replace the
// source of randomness.
type Rand interface {
	// Intn returns a non-negative integer in [0, n). n is always > 0.
	Intn(n int) int
}

// Recorder receives scheduling outcomes for observability. Implementations
// must not block or panic; Loop treats Recorder as best-effort.
type Recorder interface {
	ObserveSchedulingAttempt(result string, workloadType string)
	ObservePreemption(result string)
	ObserveFreeNodes(count int)
	ObserveDecisionDuration(operation string, seconds float64)
}

// noopRecorder discards every observation.
type noopRecorder struct{}

func (noopRecorder) ObserveSchedulingAttempt(string, string) {}
func (noopRecorder) ObservePreemption(string)                {}
func (noopRecorder) ObserveFreeNodes(int)                    {}
func (noopRecorder) ObserveDecisionDuration(string, float64) {}

// Config names the annotations and scheduler this Loop acts on.
type Config struct {
	SchedulerName      string
	GroupAnnotation    string
	PriorityAnnotation string
}

func (c Config) groupAnnotation() string {
	if c.GroupAnnotation != "" {
		return c.GroupAnnotation
	}
	return podutil.DefaultGroupAnnotation
}

func (c Config) priorityAnnotation() string {
	if c.PriorityAnnotation != "" {
		return c.PriorityAnnotation
	}
	return podutil.DefaultPriorityAnnotation
}

// Loop is the scheduler's watch-bind-preempt control loop.
type Loop struct {
	api        clusterapi.API
	nodes      *nodediscovery.Discoverer
	preemptor  *preemption.Preemptor
	classifier func(*v1.Pod) string
	cfg        Config
	rnd        Rand
	recorder   Recorder
}

// New builds a Loop from its collaborators. classify, if non-nil,
// labels scheduling attempts by workload type for metrics; if nil,
// every attempt is labeled "unknown".
func New(api clusterapi.API, cfg Config, rnd Rand, recorder Recorder, classify func(*v1.Pod) string) *Loop {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if classify == nil {
		classify = func(*v1.Pod) string { return "unknown" }
	}
	return &Loop{
		api:        api,
		nodes:      nodediscovery.New(api),
		preemptor:  preemption.New(api, gangdiscovery.NewWithAnnotations(api, cfg.GroupAnnotation, cfg.PriorityAnnotation)),
		classifier: classify,
		cfg:        cfg,
		rnd:        rnd,
		recorder:   recorder,
	}
}

// Run watches every pod in the cluster until ctx is cancelled or the
// watch channel closes, scheduling each event naming this scheduler as
// schedulable. It returns nil on clean shutdown (ctx cancellation or an
// orderly channel close) and a non-nil error if the watch itself fails
// to start.
func (l *Loop) Run(ctx context.Context) error {
	w, err := l.api.WatchPods(ctx)
	if err != nil {
		return fmt.Errorf("starting pod watch: %w", err)
	}
	defer w.Stop()

	klog.InfoS("starting scheduler", "schedulerName", l.cfg.SchedulerName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.ResultChan():
			if !ok {
				return nil
			}
			l.handleEvent(ctx, event)
		}
	}
}

func (l *Loop) handleEvent(ctx context.Context, event watch.Event) {
	if event.Type == watch.Error {
		klog.ErrorS(nil, "watch error event received", "object", event.Object)
		return
	}

	pod, ok := event.Object.(*v1.Pod)
	if !ok {
		return
	}
	if !l.isSchedulable(pod, event.Type) {
		return
	}
	l.SchedulePod(ctx, pod)
}

// isSchedulable reports whether an event names a pod this scheduler
// should act on: an Added/Modified pod, Pending,
// naming this scheduler, not yet bound to a node.
func (l *Loop) isSchedulable(pod *v1.Pod, eventType watch.EventType) bool {
	if eventType != watch.Added && eventType != watch.Modified {
		return false
	}
	if pod.Status.Phase != v1.PodPending {
		return false
	}
	if pod.Spec.SchedulerName != l.cfg.SchedulerName {
		return false
	}
	return pod.Spec.NodeName == ""
}

// SchedulePod runs one scheduling decision for pod: select a free node,
// preempting a lower-priority gang once if none is free, then bind. It
// is exported so integration tests can drive scheduling decisions
// directly without needing a live watch stream.
func (l *Loop) SchedulePod(ctx context.Context, pod *v1.Pod) {
	namespace := pod.Namespace
	if namespace == "" {
		namespace = "default"
	}
	workloadType := l.classifier(pod)

	nodeName, err := l.selectNode(ctx)
	if errors.Is(err, ErrNoNodesAvailable) {
		gangID, _ := podutil.EffectiveGangID(pod, l.cfg.groupAnnotation())
		preemptStart := time.Now()
		preemptErr := l.preemptor.PreemptFor(ctx, gangID)
		l.recorder.ObserveDecisionDuration("preempt", time.Since(preemptStart).Seconds())
		if preemptErr != nil {
			klog.InfoS("failed to schedule pod", "pod", pod.Name, "namespace", namespace, "reason", preemptErr)
			l.recorder.ObserveSchedulingAttempt("failed", workloadType)
			l.recorder.ObservePreemption("failed")
			return
		}
		l.recorder.ObservePreemption("succeeded")

		nodeName, err = l.selectNode(ctx)
	}
	if err != nil {
		klog.InfoS("failed to schedule pod", "pod", pod.Name, "namespace", namespace, "reason", err)
		l.recorder.ObserveSchedulingAttempt("failed", workloadType)
		return
	}

	klog.InfoS("binding pod", "pod", pod.Name, "namespace", namespace, "node", nodeName)
	bindStart := time.Now()
	err = l.api.Bind(ctx, namespace, pod.Name, nodeName)
	l.recorder.ObserveDecisionDuration("bind", time.Since(bindStart).Seconds())
	if err != nil {
		klog.ErrorS(err, "bind failed", "pod", pod.Name, "namespace", namespace, "node", nodeName)
		l.recorder.ObserveSchedulingAttempt("bind_failed", workloadType)
		return
	}
	l.recorder.ObserveSchedulingAttempt("bound", workloadType)
}

func (l *Loop) selectNode(ctx context.Context) (string, error) {
	start := time.Now()
	defer func() {
		l.recorder.ObserveDecisionDuration("select_node", time.Since(start).Seconds())
	}()

	free, err := l.nodes.FreeNodes(ctx)
	if err != nil {
		return "", err
	}
	l.recorder.ObserveFreeNodes(len(free))
	if len(free) == 0 {
		return "", ErrNoNodesAvailable
	}
	return free[l.rnd.Intn(len(free))].Name, nil
}
