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

// Package podutil holds pure, I/O-free predicates over pod records:
// terminating/terminated checks, system and daemon ownership, and the
// effective-priority/effective-gang-id computations every other
// package in this module builds on.
package podutil

import (
	"strconv"

	v1 "k8s.io/api/core/v1"
)

// DefaultGroupAnnotation is the annotation key carrying a pod's gang id.
const DefaultGroupAnnotation = "pod-group"

// DefaultPriorityAnnotation is the annotation key carrying a pod's priority
// when the pod spec's numeric priority is unset.
const DefaultPriorityAnnotation = "priority"

// systemNamespaces are treated as fixtures: never scheduled, never evicted.
var systemNamespaces = map[string]bool{
	"kube-system":     true,
	"kube-public":     true,
	"kube-node-lease": true,
}

// IsTerminating reports whether the pod has been marked for deletion.
func IsTerminating(pod *v1.Pod) bool {
	return pod != nil && pod.DeletionTimestamp != nil
}

// IsTerminatedPhase reports whether phase is a terminal phase.
func IsTerminatedPhase(phase v1.PodPhase) bool {
	return phase == v1.PodSucceeded || phase == v1.PodFailed
}

// IsSystemNamespace reports whether the pod lives in one of the
// fixed set of cluster-infra namespaces.
func IsSystemNamespace(pod *v1.Pod) bool {
	return pod != nil && systemNamespaces[pod.Namespace]
}

// IsDaemonOwned reports whether any owner reference names a DaemonSet.
func IsDaemonOwned(pod *v1.Pod) bool {
	if pod == nil {
		return false
	}
	for _, ref := range pod.OwnerReferences {
		if ref.Kind == "DaemonSet" {
			return true
		}
	}
	return false
}

// ShouldSkipForScheduling reports whether a pod is an immutable fixture:
// neither a scheduling candidate nor an eviction candidate. Applying it
// twice is equivalent to applying it once: it is a pure function of
// namespace and owner references, both stable for the pod's lifetime.
func ShouldSkipForScheduling(pod *v1.Pod) bool {
	return IsSystemNamespace(pod) || IsDaemonOwned(pod)
}

// EffectivePriority returns the pod's priority: the pod
// spec's numeric priority if set, else the named annotation parsed as a
// decimal integer, else 0. A malformed annotation is treated as 0, never
// as an error: the caller has no use for distinguishing "absent" from
// "malformed" here.
func EffectivePriority(pod *v1.Pod, priorityAnnotation string) int {
	if pod == nil {
		return 0
	}
	if pod.Spec.Priority != nil {
		return int(*pod.Spec.Priority)
	}
	raw, ok := pod.Annotations[priorityAnnotation]
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

// EffectiveGangID returns the pod's gang id: the value of
// the named group annotation, and whether it was present at all. A pod
// with no such annotation belongs to the "ungrouped" bucket, represented
// by ok == false; callers that want the sentinel id itself use "".
func EffectiveGangID(pod *v1.Pod, groupAnnotation string) (id string, ok bool) {
	if pod == nil {
		return "", false
	}
	v, ok := pod.Annotations[groupAnnotation]
	return v, ok
}
