/*
Copyright 2026 The KubeNexus Authors.

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

// Package workload classifies pods by workload type for observability
// only: the result never gates a scheduling or preemption decision,
// it only labels the kubenexus_scheduling_attempts_total metric.
package workload

import (
	v1 "k8s.io/api/core/v1"

	"github.com/kubenexus/foobar-scheduler/pkg/podutil"
)

// Type represents the type of workload.
type Type int

const (
	// TypeService represents normal service workloads (APIs, webapps, databases).
	TypeService Type = iota
	// TypeBatch represents batch workloads (Spark, ML training, gang-scheduled jobs).
	TypeBatch
)

// String returns the string representation of the workload type.
func (t Type) String() string {
	switch t {
	case TypeService:
		return "service"
	case TypeBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// batchLabelIndicators are label keys used by common batch frameworks
// that don't necessarily also carry a gang annotation.
var batchLabelIndicators = []string{
	"spark-role",
	"spark-app-id",
	"tf-replica-type",
	"pytorch-replica-type",
	"mpi-job-role",
	"ray.io/node-type",
	"kubeflow.org/component",
	"batch.kubernetes.io/job-name",
}

// ClassifyPod determines the workload type of a pod. It is purely
// descriptive: a pod classified as TypeService is scheduled and
// preempted exactly like one classified as TypeBatch.
func ClassifyPod(pod *v1.Pod) Type {
	if pod == nil {
		return TypeService
	}

	if gangID, ok := podutil.EffectiveGangID(pod, podutil.DefaultGroupAnnotation); ok && gangID != "" {
		return TypeBatch
	}

	if workloadType, exists := pod.Labels["workload.kubenexus.io/type"]; exists {
		if workloadType == "batch" {
			return TypeBatch
		}
		return TypeService
	}

	for _, indicator := range batchLabelIndicators {
		if _, exists := pod.Labels[indicator]; exists {
			return TypeBatch
		}
	}

	for _, ownerRef := range pod.OwnerReferences {
		if ownerRef.Kind == "Job" || ownerRef.Kind == "CronJob" {
			return TypeBatch
		}
	}

	return TypeService
}

// IsBatch returns true if the pod is a batch workload.
func IsBatch(pod *v1.Pod) bool {
	return ClassifyPod(pod) == TypeBatch
}

// IsService returns true if the pod is a service workload.
func IsService(pod *v1.Pod) bool {
	return ClassifyPod(pod) == TypeService
}
