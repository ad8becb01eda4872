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

// Package schedulertest provides a narrow, hand-written fake of
// clusterapi.API for unit tests that need more control than the real
// client-go fake clientset gives: in particular, configuring exactly
// which eviction calls fail, the way the original Python suite mocks
// client.CoreV1Api with unittest.mock.Mock(spec=...).
package schedulertest

import (
	"context"
	"fmt"
	"sync"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/kubenexus/foobar-scheduler/pkg/clusterapi"
)

// FakeAPI is an in-memory clusterapi.API for tests.
type FakeAPI struct {
	mu    sync.Mutex
	nodes []*v1.Node
	pods  map[string]*v1.Pod // key: namespace/name

	// EvictFailures, when set, names pods (namespace/name) whose Evict
	// call must return an error instead of succeeding.
	EvictFailures map[string]bool

	// BindFailures, when set, names pods (namespace/name) whose Bind
	// call must return an error instead of succeeding.
	BindFailures map[string]bool

	watcher *watch.FakeWatcher

	// Binds and Evictions record calls made against this fake, in order.
	Binds     []BindCall
	Evictions []EvictCall
}

// BindCall records one Bind invocation.
type BindCall struct{ Namespace, PodName, NodeName string }

// EvictCall records one Evict invocation.
type EvictCall struct {
	Namespace, PodName string
	GraceSeconds       int64
}

var _ clusterapi.API = (*FakeAPI)(nil)

// NewFakeAPI seeds a FakeAPI with the given nodes and pods.
func NewFakeAPI(nodes []*v1.Node, pods []*v1.Pod) *FakeAPI {
	f := &FakeAPI{
		pods:    make(map[string]*v1.Pod, len(pods)),
		watcher: watch.NewFake(),
	}
	f.nodes = append(f.nodes, nodes...)
	for _, p := range pods {
		f.pods[key(p.Namespace, p.Name)] = p
	}
	return f
}

func key(namespace, name string) string {
	return namespace + "/" + name
}

// Watcher exposes the underlying FakeWatcher so tests can push events.
func (f *FakeAPI) Watcher() *watch.FakeWatcher {
	return f.watcher
}

func (f *FakeAPI) ListPods(ctx context.Context) ([]*v1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*v1.Pod, 0, len(f.pods))
	for _, p := range f.pods {
		out = append(out, p)
	}
	return out, nil
}

func (f *FakeAPI) ListNodes(ctx context.Context) ([]*v1.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*v1.Node, len(f.nodes))
	copy(out, f.nodes)
	return out, nil
}

func (f *FakeAPI) WatchPods(ctx context.Context) (watch.Interface, error) {
	return f.watcher, nil
}

func (f *FakeAPI) Bind(ctx context.Context, namespace, podName, nodeName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Binds = append(f.Binds, BindCall{namespace, podName, nodeName})
	if f.BindFailures[key(namespace, podName)] {
		return fmt.Errorf("%w: bind rejected for %s/%s", clusterapi.ErrBindFailed, namespace, podName)
	}

	p, ok := f.pods[key(namespace, podName)]
	if !ok {
		return fmt.Errorf("%w: pod %s/%s not found", clusterapi.ErrBindFailed, namespace, podName)
	}
	if p.Spec.NodeName != "" {
		return fmt.Errorf("%w: pod %s/%s already bound to %s", clusterapi.ErrBindFailed, namespace, podName, p.Spec.NodeName)
	}
	p.Spec.NodeName = nodeName
	return nil
}

func (f *FakeAPI) Evict(ctx context.Context, namespace, podName string, graceSeconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Evictions = append(f.Evictions, EvictCall{namespace, podName, graceSeconds})
	if f.EvictFailures[key(namespace, podName)] {
		return fmt.Errorf("%w: eviction rejected for %s/%s (disruption policy)", clusterapi.ErrEvictionFailed, namespace, podName)
	}

	k := key(namespace, podName)
	if _, ok := f.pods[k]; !ok {
		return fmt.Errorf("%w: pod %s/%s not found", clusterapi.ErrEvictionFailed, namespace, podName)
	}
	// Simulate the eviction running to completion (grace period elapsed,
	// kubelet tore the pod down, garbage collection removed the object):
	// subsequent ListPods/GetGroup calls no longer see it, freeing its node.
	delete(f.pods, k)
	return nil
}

// AddPod adds or replaces a pod in the fake's backing store.
func (f *FakeAPI) AddPod(p *v1.Pod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods[key(p.Namespace, p.Name)] = p
}
