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

// Package nodediscovery computes free/occupied status for cluster nodes.
// The node model is binary: a node is free iff no "active user pod"
// currently claims it. Every call re-lists pods and nodes: there is no
// cached view, each scheduling decision re-reads current cluster state.
package nodediscovery

import (
	"context"

	v1 "k8s.io/api/core/v1"

	"github.com/kubenexus/foobar-scheduler/pkg/clusterapi"
	"github.com/kubenexus/foobar-scheduler/pkg/podutil"
)

// Status is a derived, never-persisted view of one node's occupancy.
type Status struct {
	Name   string
	IsFree bool
}

// Discoverer lists nodes and classifies their occupancy.
type Discoverer struct {
	api clusterapi.API
}

// New creates a Discoverer backed by api.
func New(api clusterapi.API) *Discoverer {
	return &Discoverer{api: api}
}

// NodesWithStatus lists every node, marking a node free iff no active
// user pod is assigned to it.
func (d *Discoverer) NodesWithStatus(ctx context.Context) ([]Status, error) {
	nodes, err := d.api.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	occupied, err := d.occupiedNodeNames(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(nodes))
	for _, n := range nodes {
		statuses = append(statuses, Status{
			Name:   n.Name,
			IsFree: !occupied[n.Name],
		})
	}
	return statuses, nil
}

// FreeNodes returns only the free subset of NodesWithStatus.
func (d *Discoverer) FreeNodes(ctx context.Context) ([]Status, error) {
	all, err := d.NodesWithStatus(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]Status, 0, len(all))
	for _, s := range all {
		if s.IsFree {
			free = append(free, s)
		}
	}
	return free, nil
}

// CountFreeNodes returns the number of free nodes.
func (d *Discoverer) CountFreeNodes(ctx context.Context) (int, error) {
	free, err := d.FreeNodes(ctx)
	if err != nil {
		return 0, err
	}
	return len(free), nil
}

// occupiedNodeNames is the set of node names claimed by an "active user
// pod": non-system, non-daemon, Running or Pending, and bound to a node.
func (d *Discoverer) occupiedNodeNames(ctx context.Context) (map[string]bool, error) {
	pods, err := d.api.ListPods(ctx)
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]bool, len(pods))
	for _, p := range pods {
		if !isActiveUserPod(p) {
			continue
		}
		occupied[p.Spec.NodeName] = true
	}
	return occupied, nil
}

func isActiveUserPod(p *v1.Pod) bool {
	if podutil.IsSystemNamespace(p) || podutil.IsDaemonOwned(p) {
		return false
	}
	if p.Status.Phase != v1.PodRunning && p.Status.Phase != v1.PodPending {
		return false
	}
	return p.Spec.NodeName != ""
}
