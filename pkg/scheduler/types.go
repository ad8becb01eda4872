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

// Package scheduler holds the top-level configuration and defaults
// shared by cmd/scheduler and the scheduling loop.
package scheduler

// DefaultSchedulerName is the scheduler name a pod's spec must carry
// for this scheduler to consider it, unless overridden by flag.
const DefaultSchedulerName = "foobar"

// DefaultMetricsAddr is the listen address for the metrics/health server.
const DefaultMetricsAddr = ":9090"

// DefaultGracePeriodSeconds is the eviction grace period used when
// preempting a gang: evict immediately rather than waiting out a
// termination grace.
const DefaultGracePeriodSeconds = 0
