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

package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	v1 "k8s.io/api/core/v1"
	klog "k8s.io/klog/v2"

	"github.com/kubenexus/foobar-scheduler/pkg/clusterapi"
	schedulerpkg "github.com/kubenexus/foobar-scheduler/pkg/scheduler"
	"github.com/kubenexus/foobar-scheduler/pkg/scheduling"
	"github.com/kubenexus/foobar-scheduler/pkg/workload"
)

// mathRand adapts math/rand's top-level Intn to scheduling.Rand, giving
// callers an injectable, observable source of the node-selection
// randomness this scheduler relies on.
type mathRand struct{}

func (mathRand) Intn(n int) int { return rand.Intn(n) }

func main() {
	var (
		schedulerName      string
		kubeconfig         string
		metricsAddr        string
		groupAnnotation    string
		priorityAnnotation string
	)
	flag.StringVar(&schedulerName, "scheduler-name", schedulerpkg.DefaultSchedulerName, "scheduler name pods must request to be considered")
	flag.StringVar(&kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "path to a kubeconfig file; falls back to in-cluster config")
	flag.StringVar(&metricsAddr, "metrics-addr", schedulerpkg.DefaultMetricsAddr, "address to serve /metrics and /healthz on")
	flag.StringVar(&groupAnnotation, "group-annotation", "pod-group", "annotation key carrying a pod's gang id")
	flag.StringVar(&priorityAnnotation, "priority-annotation", "priority", "annotation key carrying a pod's fallback priority")
	klog.InitFlags(nil)
	flag.Parse()

	klog.InfoS("starting kubenexus scheduler", "schedulerName", schedulerName, "metricsAddr", metricsAddr)

	api, err := clusterapi.NewFromKubeconfig(kubeconfig)
	if err != nil {
		klog.ErrorS(err, "failed to build cluster API client")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "metrics server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := scheduling.New(
		api,
		scheduling.Config{
			SchedulerName:      schedulerName,
			GroupAnnotation:    groupAnnotation,
			PriorityAnnotation: priorityAnnotation,
		},
		mathRand{},
		schedulerpkg.Recorder{},
		func(p *v1.Pod) string { return workload.ClassifyPod(p).String() },
	)

	if err := loop.Run(ctx); err != nil {
		klog.ErrorS(err, "scheduling loop exited with error")
		shutdown(srv)
		os.Exit(1)
	}

	klog.InfoS("scheduling loop stopped, shutting down")
	shutdown(srv)
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.ErrorS(err, "metrics server shutdown failed")
	}
}
