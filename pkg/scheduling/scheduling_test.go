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

package scheduling

import (
	"context"
	"testing"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubenexus/foobar-scheduler/internal/schedulertest"
)

// fixedRand always returns 0, making node selection deterministic: the
// first free node (in list order) is always chosen.
type fixedRand struct{}

func (fixedRand) Intn(n int) int { return 0 }

type recordingRecorder struct {
	attempts    []string
	preemptions []string
	freeNodes   []int
}

func (r *recordingRecorder) ObserveSchedulingAttempt(result, workloadType string) {
	r.attempts = append(r.attempts, result)
}
func (r *recordingRecorder) ObservePreemption(result string) {
	r.preemptions = append(r.preemptions, result)
}
func (r *recordingRecorder) ObserveFreeNodes(count int) {
	r.freeNodes = append(r.freeNodes, count)
}
func (r *recordingRecorder) ObserveDecisionDuration(operation string, seconds float64) {}

func pendingPod(name, schedulerName string) *v1.Pod {
	return &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Spec:       v1.PodSpec{SchedulerName: schedulerName},
		Status:     v1.PodStatus{Phase: v1.PodPending},
	}
}

func TestIsSchedulable(t *testing.T) {
	l := &Loop{cfg: Config{SchedulerName: "foobar"}}

	schedulable := pendingPod("p", "foobar")
	if !l.isSchedulable(schedulable, "ADDED") {
		t.Error("expected schedulable pod to be schedulable")
	}

	wrongScheduler := pendingPod("p", "other-scheduler")
	if l.isSchedulable(wrongScheduler, "ADDED") {
		t.Error("pod naming a different scheduler must not be schedulable")
	}

	alreadyBound := pendingPod("p", "foobar")
	alreadyBound.Spec.NodeName = "node1"
	if l.isSchedulable(alreadyBound, "ADDED") {
		t.Error("already-bound pod must not be schedulable")
	}

	notPending := pendingPod("p", "foobar")
	notPending.Status.Phase = v1.PodRunning
	if l.isSchedulable(notPending, "ADDED") {
		t.Error("non-pending pod must not be schedulable")
	}

	deleted := pendingPod("p", "foobar")
	if l.isSchedulable(deleted, "DELETED") {
		t.Error("DELETED events must not be schedulable")
	}
}

func TestSchedulePodBindsToFreeNode(t *testing.T) {
	api := schedulertest.NewFakeAPI(
		[]*v1.Node{{ObjectMeta: metav1.ObjectMeta{Name: "node1"}}},
		nil,
	)
	pod := pendingPod("p", "foobar")
	api.AddPod(pod)

	rec := &recordingRecorder{}
	l := New(api, Config{SchedulerName: "foobar"}, fixedRand{}, rec, nil)

	l.SchedulePod(context.Background(), pod)

	if len(api.Binds) != 1 {
		t.Fatalf("Binds = %d, want 1", len(api.Binds))
	}
	if api.Binds[0].NodeName != "node1" {
		t.Errorf("bound node = %s, want node1", api.Binds[0].NodeName)
	}
	if len(rec.attempts) != 1 || rec.attempts[0] != "bound" {
		t.Errorf("attempts = %v, want [bound]", rec.attempts)
	}
	if len(rec.freeNodes) != 1 || rec.freeNodes[0] != 1 {
		t.Errorf("freeNodes observations = %v, want [1]", rec.freeNodes)
	}
}

func TestSchedulePodPreemptsWhenNoFreeNodes(t *testing.T) {
	lowPriority := int32(1)
	victim := &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name: "victim", Namespace: "default",
			Annotations: map[string]string{"pod-group": "victim-group"},
		},
		Spec:   v1.PodSpec{NodeName: "node1", Priority: &lowPriority},
		Status: v1.PodStatus{Phase: v1.PodRunning},
	}
	api := schedulertest.NewFakeAPI(
		[]*v1.Node{{ObjectMeta: metav1.ObjectMeta{Name: "node1"}}},
		[]*v1.Pod{victim},
	)

	highPriority := int32(10)
	pod := &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name: "requester", Namespace: "default",
			Annotations: map[string]string{"pod-group": "requester-group"},
		},
		Spec:   v1.PodSpec{SchedulerName: "foobar", Priority: &highPriority},
		Status: v1.PodStatus{Phase: v1.PodPending},
	}
	api.AddPod(pod)

	rec := &recordingRecorder{}
	l := New(api, Config{SchedulerName: "foobar"}, fixedRand{}, rec, nil)

	l.SchedulePod(context.Background(), pod)

	if len(api.Evictions) != 1 || api.Evictions[0].PodName != "victim" {
		t.Fatalf("Evictions = %+v, want one eviction of victim", api.Evictions)
	}
	if len(rec.preemptions) != 1 || rec.preemptions[0] != "succeeded" {
		t.Errorf("preemptions = %v, want [succeeded]", rec.preemptions)
	}
	if len(api.Binds) != 1 || api.Binds[0].NodeName != "node1" {
		t.Fatalf("Binds = %+v, want one bind to node1 once the victim is evicted", api.Binds)
	}
	if len(rec.attempts) != 1 || rec.attempts[0] != "bound" {
		t.Errorf("attempts = %v, want [bound]", rec.attempts)
	}
}

func TestSchedulePodNoNodesNoGangGivesUp(t *testing.T) {
	api := schedulertest.NewFakeAPI(nil, nil) // no nodes at all
	pod := pendingPod("p", "foobar")
	api.AddPod(pod)

	rec := &recordingRecorder{}
	l := New(api, Config{SchedulerName: "foobar"}, fixedRand{}, rec, nil)

	l.SchedulePod(context.Background(), pod)

	if len(api.Binds) != 0 {
		t.Errorf("Binds = %d, want 0", len(api.Binds))
	}
	if len(rec.attempts) != 1 || rec.attempts[0] != "failed" {
		t.Errorf("attempts = %v, want [failed]", rec.attempts)
	}
}
