/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package k8s

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/utils/ptr"
)

// RolloutStatus summarizes one Deployment's readiness.
type RolloutStatus struct {
	Namespace       string `json:"namespace" yaml:"namespace"`
	Name            string `json:"name" yaml:"name"`
	DesiredReplicas int32  `json:"desired_replicas" yaml:"desired_replicas"`
	ReadyReplicas   int32  `json:"ready_replicas" yaml:"ready_replicas"`
	Image           string `json:"image,omitempty" yaml:"image,omitempty"`
	Ready           bool   `json:"ready" yaml:"ready"`
}

// GetRolloutStatus fetches the current readiness of a Deployment.
func GetRolloutStatus(ctx context.Context, client Interface, namespace, name string) (*RolloutStatus, error) {
	dep, err := client.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
	}
	return statusFromDeployment(dep), nil
}

// WaitForReady blocks until the Deployment reports all desired replicas
// ready, or the timeout elapses. Uses the watch API rather than polling.
func WaitForReady(ctx context.Context, client Interface, namespace, name string, timeout time.Duration) (*RolloutStatus, error) {
	// Fast path: already ready.
	status, err := GetRolloutStatus(ctx, client, namespace, name)
	if err != nil {
		return nil, err
	}
	if status.Ready {
		return status, nil
	}

	watcher, err := client.AppsV1().Deployments(namespace).Watch(
		ctx,
		metav1.ListOptions{
			FieldSelector: fmt.Sprintf("metadata.name=%s", name),
			Watch:         true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to watch deployment: %w", err)
	}
	defer watcher.Stop()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-timeoutCtx.Done():
			return status, fmt.Errorf("timeout waiting for deployment %s/%s after %v (ready %d/%d)",
				namespace, name, timeout, status.ReadyReplicas, status.DesiredReplicas)

		case event, ok := <-watcher.ResultChan():
			if !ok {
				return status, fmt.Errorf("watch channel closed unexpectedly")
			}

			if event.Type == watch.Error {
				return status, fmt.Errorf("watch error: %v", event.Object)
			}

			dep, ok := event.Object.(*appsv1.Deployment)
			if !ok {
				continue
			}

			status = statusFromDeployment(dep)
			if status.Ready {
				return status, nil
			}
		}
	}
}

func statusFromDeployment(dep *appsv1.Deployment) *RolloutStatus {
	desired := ptr.Deref(dep.Spec.Replicas, 1)

	status := &RolloutStatus{
		Namespace:       dep.Namespace,
		Name:            dep.Name,
		DesiredReplicas: desired,
		ReadyReplicas:   dep.Status.ReadyReplicas,
		Ready:           desired > 0 && dep.Status.ReadyReplicas >= desired,
	}

	if containers := dep.Spec.Template.Spec.Containers; len(containers) > 0 {
		status.Image = containers[0].Image
	}

	return status
}
