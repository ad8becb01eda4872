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

// Package gangdiscovery groups pods sharing a gang annotation into
// PodGroups. A group's priority is the maximum
// effective priority across its member pods.
package gangdiscovery

import (
	"context"
	"sort"

	"github.com/samber/lo"
	v1 "k8s.io/api/core/v1"

	"github.com/kubenexus/foobar-scheduler/pkg/clusterapi"
	"github.com/kubenexus/foobar-scheduler/pkg/podutil"
)

// PodGroup is a set of pods sharing one gang id.
type PodGroup struct {
	GangID   string
	Pods     []*v1.Pod
	Size     int
	Priority int
}

// Selector narrows which pods Discover considers. It has no option to
// drop pods lacking the group annotation: all such pods fall into one
// group with GangID "", so unrelated ungrouped pods are discovered, and
// can be preempted, together.
type Selector struct {
	// MaxPriority, if non-nil, excludes pods whose effective priority
	// exceeds it. Used by preemption to find groups strictly below a
	// victim's priority.
	MaxPriority *int

	// AllowedStatuses, if non-nil, keeps only pods whose phase is in
	// this set. If nil, every phase except Succeeded/Failed is kept.
	AllowedStatuses map[v1.PodPhase]bool

	GroupAnnotation    string
	PriorityAnnotation string
}

// Discoverer groups cluster pods into PodGroups, using groupAnnotation
// and priorityAnnotation as the defaults for any call whose Selector
// (or, for GetGroup, which takes no Selector at all) leaves them unset.
type Discoverer struct {
	api                clusterapi.API
	groupAnnotation    string
	priorityAnnotation string
}

// New creates a Discoverer backed by api, using the default gang and
// priority annotations.
func New(api clusterapi.API) *Discoverer {
	return NewWithAnnotations(api, "", "")
}

// NewWithAnnotations creates a Discoverer backed by api, using
// groupAnnotation/priorityAnnotation in place of the defaults when
// non-empty. This is how a scheduling loop configured with
// --group-annotation/--priority-annotation makes GetGroup and the
// default Selector agree with the annotation it extracts a pod's gang
// id and priority from.
func NewWithAnnotations(api clusterapi.API, groupAnnotation, priorityAnnotation string) *Discoverer {
	if groupAnnotation == "" {
		groupAnnotation = podutil.DefaultGroupAnnotation
	}
	if priorityAnnotation == "" {
		priorityAnnotation = podutil.DefaultPriorityAnnotation
	}
	return &Discoverer{api: api, groupAnnotation: groupAnnotation, priorityAnnotation: priorityAnnotation}
}

func (d *Discoverer) resolveGroupAnnotation(selector Selector) string {
	if selector.GroupAnnotation != "" {
		return selector.GroupAnnotation
	}
	return d.groupAnnotation
}

func (d *Discoverer) resolvePriorityAnnotation(selector Selector) string {
	if selector.PriorityAnnotation != "" {
		return selector.PriorityAnnotation
	}
	return d.priorityAnnotation
}

// Discover lists every pod matching selector, groups them by gang id,
// and returns groups sorted by (priority ascending, size descending) :
// lowest-priority, largest groups first, the order preemption walks
// candidates in.
func (d *Discoverer) Discover(ctx context.Context, selector Selector) ([]PodGroup, error) {
	groupAnnotation := d.resolveGroupAnnotation(selector)
	priorityAnnotation := d.resolvePriorityAnnotation(selector)

	pods, err := d.api.ListPods(ctx)
	if err != nil {
		return nil, err
	}

	pods = lo.Filter(pods, func(p *v1.Pod, _ int) bool {
		return !podutil.ShouldSkipForScheduling(p)
	})
	pods = lo.Filter(pods, func(p *v1.Pod, _ int) bool {
		return matchesStatus(p, selector)
	})
	pods = lo.Filter(pods, func(p *v1.Pod, _ int) bool {
		if selector.MaxPriority == nil {
			return true
		}
		return podutil.EffectivePriority(p, priorityAnnotation) <= *selector.MaxPriority
	})

	byGangID := lo.GroupBy(pods, func(p *v1.Pod) string {
		gid, _ := podutil.EffectiveGangID(p, groupAnnotation)
		return gid
	})

	groups := make([]PodGroup, 0, len(byGangID))
	for gid, members := range byGangID {
		groups = append(groups, PodGroup{
			GangID:   gid,
			Pods:     members,
			Size:     len(members),
			Priority: maxPriority(members, priorityAnnotation),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority < groups[j].Priority
		}
		return groups[i].Size > groups[j].Size
	})
	return groups, nil
}

// GetGroup fetches every pod carrying gangID under the Discoverer's
// configured gang annotation, applying no status or priority filters: a
// deliberate choice, so that callers checking "does this gang still
// exist, and how big is it" see terminating and terminated members too
// rather than undercounting a gang that is already partway through
// eviction. Returns nil, nil if no pod currently carries gangID.
func (d *Discoverer) GetGroup(ctx context.Context, gangID string) (*PodGroup, error) {
	pods, err := d.api.ListPods(ctx)
	if err != nil {
		return nil, err
	}

	members := lo.Filter(pods, func(p *v1.Pod, _ int) bool {
		gid, _ := podutil.EffectiveGangID(p, d.groupAnnotation)
		return gid == gangID
	})
	if len(members) == 0 {
		return nil, nil
	}

	return &PodGroup{
		GangID:   gangID,
		Pods:     members,
		Size:     len(members),
		Priority: maxPriority(members, d.priorityAnnotation),
	}, nil
}

func matchesStatus(p *v1.Pod, selector Selector) bool {
	if selector.AllowedStatuses != nil {
		return selector.AllowedStatuses[p.Status.Phase]
	}
	return p.Status.Phase != v1.PodSucceeded && p.Status.Phase != v1.PodFailed
}

func maxPriority(pods []*v1.Pod, priorityAnnotation string) int {
	max := 0
	for i, p := range pods {
		prio := podutil.EffectivePriority(p, priorityAnnotation)
		if i == 0 || prio > max {
			max = prio
		}
	}
	return max
}
