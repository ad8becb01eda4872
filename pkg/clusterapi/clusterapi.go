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

// Package clusterapi defines the narrow slice of the cluster API the
// scheduling core depends on: listing pods and nodes,
// watching pods, binding a pod to a node, and requesting eviction. The
// core only ever talks to the API through this interface, so it can be
// exercised against a fake clientset or a hand-written stub in tests.
package clusterapi

import (
	"context"
	"errors"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// Sentinel errors wrapping the two cluster mutations this API performs,
// so callers and tests can tell a rejected bind from a rejected eviction
// with errors.Is. Both wrap the server's own message when one is
// available.
var (
	ErrBindFailed     = errors.New("bind failed")
	ErrEvictionFailed = errors.New("eviction failed")
)

// API is the cluster API surface consumed by the scheduling core.
type API interface {
	// ListPods lists every pod across all namespaces.
	ListPods(ctx context.Context) ([]*v1.Pod, error)

	// ListNodes lists every node in the cluster.
	ListNodes(ctx context.Context) ([]*v1.Node, error)

	// WatchPods opens a cluster-wide watch over pods. Event types follow
	// watch.Interface: Added, Modified, Deleted, Bookmark, Error.
	WatchPods(ctx context.Context) (watch.Interface, error)

	// Bind assigns podName in namespace to nodeName. Fails if the pod is
	// already bound or no longer exists.
	Bind(ctx context.Context, namespace, podName, nodeName string) error

	// Evict requests graceful termination of podName in namespace,
	// subject to any disruption policy (e.g. a PodDisruptionBudget). A
	// policy rejection is reported as an error, never a panic.
	Evict(ctx context.Context, namespace, podName string, graceSeconds int64) error
}
