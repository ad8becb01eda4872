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

package clusterapi

import (
	"context"
	"testing"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestListPodsAndNodes(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&v1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "pod-a"}},
		&v1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-a"}},
	)
	api := NewClientsetAPI(clientset)

	pods, err := api.ListPods(context.Background())
	if err != nil {
		t.Fatalf("ListPods() error = %v", err)
	}
	if len(pods) != 1 || pods[0].Name != "pod-a" {
		t.Errorf("ListPods() = %+v, want one pod named pod-a", pods)
	}

	nodes, err := api.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes() error = %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "node-a" {
		t.Errorf("ListNodes() = %+v, want one node named node-a", nodes)
	}
}

func TestBind(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&v1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "pod-a"}},
	)
	api := NewClientsetAPI(clientset)

	if err := api.Bind(context.Background(), "default", "pod-a", "node-a"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
}

func TestEvictExistingPodSucceedsMissingPodErrors(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&v1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "pod-a"}},
	)
	api := NewClientsetAPI(clientset)

	// The fake clientset has no PDB wired up, so eviction of an existing
	// pod should simply succeed; eviction of a pod that doesn't exist
	// must return an error rather than panicking.
	if err := api.Evict(context.Background(), "default", "pod-a", 0); err != nil {
		t.Fatalf("Evict() of existing pod error = %v", err)
	}
	if err := api.Evict(context.Background(), "default", "does-not-exist", 0); err == nil {
		t.Fatal("Evict() of missing pod should return an error")
	}
}
