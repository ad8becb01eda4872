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

// Package preemption implements whole-gang preemption: to free capacity
// for a pending gang, lower-priority gangs are evicted entirely, never
// partially, starting from the lowest-priority, largest candidates.
package preemption

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	klog "k8s.io/klog/v2"

	"github.com/kubenexus/foobar-scheduler/pkg/gangdiscovery"
	"github.com/kubenexus/foobar-scheduler/pkg/podutil"
)

// Sentinel errors, checkable with errors.Is, covering every way a
// preemption attempt can fail to free enough capacity.
var (
	// ErrGroupNotFound is returned when the gang requesting capacity no
	// longer exists by the time preemption looks it up.
	ErrGroupNotFound = errors.New("gang not found")

	// ErrInsufficientCapacity is returned when the sum of preemptible
	// lower-priority gangs cannot cover the requesting gang's size, even
	// before any eviction call is made.
	ErrInsufficientCapacity = errors.New("insufficient preemptible capacity")

	// ErrPartialEviction is returned when a selected victim gang could
	// not be evicted in full.
	ErrPartialEviction = errors.New("partial eviction of victim gang")
)

// evictAPI is the narrow evict capability preemption needs.
type evictAPI interface {
	Evict(ctx context.Context, namespace, podName string, graceSeconds int64) error
}

// Preemptor evicts lower-priority gangs to free capacity for a pending one.
type Preemptor struct {
	api        evictAPI
	discoverer *gangdiscovery.Discoverer
}

// New creates a Preemptor backed by api (for eviction calls) and
// discoverer (for gang lookup).
func New(api evictAPI, discoverer *gangdiscovery.Discoverer) *Preemptor {
	return &Preemptor{api: api, discoverer: discoverer}
}

// PreemptFor frees enough capacity for the gang named gangID by evicting
// whole lower-priority gangs, lowest-priority and largest first.
//
// It first checks, without evicting anything, whether the sum of
// strictly-lower-priority gangs' sizes can cover the requesting gang's
// size; if not it returns ErrInsufficientCapacity and makes zero
// eviction calls. Only once that capacity check passes does it start
// evicting candidate gangs in order, accumulating freed pods until the
// requesting gang's size is covered.
func (p *Preemptor) PreemptFor(ctx context.Context, gangID string) error {
	current, err := p.discoverer.GetGroup(ctx, gangID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, gangID)
	}

	minSize := current.Size
	maxPriority := current.Priority - 1
	candidates, err := p.discoverer.Discover(ctx, gangdiscovery.Selector{MaxPriority: &maxPriority})
	if err != nil {
		return err
	}

	eligible := make([]gangdiscovery.PodGroup, 0, len(candidates))
	for _, g := range candidates {
		if g.GangID == gangID {
			continue
		}
		eligible = append(eligible, g)
	}

	available := 0
	for _, g := range eligible {
		available += g.Size
	}
	if available < minSize {
		return fmt.Errorf("%w: need %d, have %d preemptible", ErrInsufficientCapacity, minSize, available)
	}

	preempted := 0
	for _, g := range eligible {
		n, err := p.PreemptGroup(ctx, g.GangID, 0, true)
		if err != nil {
			return err
		}
		if n == nil {
			// The gang vanished between selection and eviction; its pods
			// are gone but the eviction count cannot confirm the whole
			// gang was freed, so the contract is treated as broken.
			return fmt.Errorf("%w: gang %s vanished mid-preemption, evicted 0/%d", ErrPartialEviction, g.GangID, g.Size)
		}
		if *n != g.Size {
			return fmt.Errorf("%w: gang %s evicted %d/%d", ErrPartialEviction, g.GangID, *n, g.Size)
		}
		preempted += g.Size
		if preempted >= minSize {
			break
		}
	}
	return nil
}

// PreemptGroup evicts every non-terminal, non-skippable pod in the gang
// named gangID with the given grace period, returning the number of
// pods it successfully evicted. It returns (nil, nil) if the gang no
// longer exists by the time it is re-fetched. With useEviction false it
// walks the gang without issuing any eviction call and reports zero, a
// dry sweep. Per-pod eviction failures are logged (aggregated via
// multierr) but never abort the sweep: the caller judges success solely
// by comparing the returned count against the gang's size.
func (p *Preemptor) PreemptGroup(ctx context.Context, gangID string, graceSeconds int64, useEviction bool) (*int, error) {
	group, err := p.discoverer.GetGroup(ctx, gangID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, nil
	}

	var evictErrs error
	count := 0
	for _, pod := range group.Pods {
		if podutil.IsTerminating(pod) || podutil.IsTerminatedPhase(pod.Status.Phase) {
			continue
		}
		if podutil.ShouldSkipForScheduling(pod) {
			continue
		}
		if !useEviction {
			continue
		}

		if err := p.api.Evict(ctx, pod.Namespace, pod.Name, graceSeconds); err != nil {
			evictErrs = multierr.Append(evictErrs, fmt.Errorf("%s/%s: %w", pod.Namespace, pod.Name, err))
			continue
		}
		count++
	}
	if evictErrs != nil {
		klog.V(2).InfoS("some pods in gang could not be evicted", "gangID", gangID, "errors", evictErrs)
	}
	return &count, nil
}
