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
	"fmt"
	"os"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/google/uuid"
	v1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	klog "k8s.io/klog/v2"
)

// clientsetAPI is the client-go-backed implementation of API.
type clientsetAPI struct {
	clientset kubernetes.Interface
}

// NewClientsetAPI wraps an existing clientset, e.g. a fake one in tests.
func NewClientsetAPI(clientset kubernetes.Interface) API {
	return &clientsetAPI{clientset: clientset}
}

// NewFromKubeconfig bootstraps a clientset from an explicit kubeconfig
// path for local development, falling back to in-cluster credentials.
// The initial dial is wrapped in a small retry since the API server
// may not yet be reachable at process start (e.g. during a rolling
// restart).
func NewFromKubeconfig(kubeconfigPath string) (API, error) {
	cfg, err := loadRESTConfig(kubeconfigPath)
	if err != nil {
		return nil, err
	}

	var clientset kubernetes.Interface
	err = retry.Do(
		func() error {
			cs, err := kubernetes.NewForConfig(cfg)
			if err != nil {
				return err
			}
			if _, err := cs.Discovery().ServerVersion(); err != nil {
				return err
			}
			clientset = cs
			return nil
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			klog.V(2).InfoS("retrying clientset dial", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return NewClientsetAPI(clientset), nil
}

func loadRESTConfig(kubeconfigPath string) (*rest.Config, error) {
	if kubeconfigPath != "" {
		if _, statErr := os.Stat(kubeconfigPath); statErr == nil {
			klog.InfoS("loading kubeconfig from file", "path", kubeconfigPath)
			return clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		}
	}
	klog.InfoS("falling back to in-cluster config")
	return rest.InClusterConfig()
}

func (c *clientsetAPI) ListPods(ctx context.Context) ([]*v1.Pod, error) {
	list, err := c.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	pods := make([]*v1.Pod, 0, len(list.Items))
	for i := range list.Items {
		pods = append(pods, &list.Items[i])
	}
	return pods, nil
}

func (c *clientsetAPI) ListNodes(ctx context.Context) ([]*v1.Node, error) {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	nodes := make([]*v1.Node, 0, len(list.Items))
	for i := range list.Items {
		nodes = append(nodes, &list.Items[i])
	}
	return nodes, nil
}

func (c *clientsetAPI) WatchPods(ctx context.Context) (watch.Interface, error) {
	return c.clientset.CoreV1().Pods(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{})
}

func (c *clientsetAPI) Bind(ctx context.Context, namespace, podName, nodeName string) error {
	requestID := uuid.NewString()
	binding := &v1.Binding{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: podName},
		Target: v1.ObjectReference{
			APIVersion: "v1",
			Kind:       "Node",
			Name:       nodeName,
		},
	}
	klog.V(4).InfoS("issuing bind", "requestID", requestID, "pod", podName, "namespace", namespace, "node", nodeName)
	if err := c.clientset.CoreV1().Pods(namespace).Bind(ctx, binding, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	return nil
}

func (c *clientsetAPI) Evict(ctx context.Context, namespace, podName string, graceSeconds int64) error {
	requestID := uuid.NewString()
	eviction := &policyv1.Eviction{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: podName},
		DeleteOptions: &metav1.DeleteOptions{
			GracePeriodSeconds: &graceSeconds,
		},
	}
	klog.V(4).InfoS("issuing eviction", "requestID", requestID, "pod", podName, "namespace", namespace)
	if err := c.clientset.PolicyV1().Evictions(namespace).Evict(ctx, eviction); err != nil {
		return fmt.Errorf("%w: %w", ErrEvictionFailed, err)
	}
	return nil
}
