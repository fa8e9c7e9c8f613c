package kubernetes

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sclient "k8s.io/client-go/kubernetes"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// CollectWorkloads counts the cluster's nodes and reads the resource
// requests and limits of every container of every running or pending pod.
// Completed pods hold no resources and are skipped.
//
// The clientset parameter is an interface so tests can inject a fake clientset.
func CollectWorkloads(ctx context.Context, clientset k8sclient.Interface, info ClusterInfo) (*models.KubernetesWorkloads, error) {
	nodeList, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("collect nodes: %w", err)
	}

	pods, err := collectPods(ctx, clientset)
	if err != nil {
		return nil, fmt.Errorf("collect pods: %w", err)
	}

	return &models.KubernetesWorkloads{
		ContextName: info.ContextName,
		NodeCount:   len(nodeList.Items),
		Pods:        pods,
	}, nil
}

// collectPods lists pods across all namespaces and converts their
// containers' requests and limits to millicores and bytes.
func collectPods(ctx context.Context, clientset k8sclient.Interface) ([]models.KubernetesPod, error) {
	podList, err := clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	pods := make([]models.KubernetesPod, 0, len(podList.Items))
	for _, p := range podList.Items {
		if p.Status.Phase == corev1.PodSucceeded || p.Status.Phase == corev1.PodFailed {
			continue
		}
		pod := models.KubernetesPod{
			Name:      p.Name,
			Namespace: p.Namespace,
			Phase:     string(p.Status.Phase),
		}
		for _, c := range p.Spec.Containers {
			pod.Containers = append(pod.Containers, models.KubernetesContainer{
				Name:               c.Name,
				CPURequestMillis:   milliCPU(c.Resources.Requests),
				MemoryRequestBytes: memoryBytes(c.Resources.Requests),
				CPULimitMillis:     milliCPU(c.Resources.Limits),
				MemoryLimitBytes:   memoryBytes(c.Resources.Limits),
			})
		}
		pods = append(pods, pod)
	}
	return pods, nil
}

func milliCPU(rl corev1.ResourceList) int64 {
	if q, ok := rl[corev1.ResourceCPU]; ok {
		return q.MilliValue()
	}
	return 0
}

func memoryBytes(rl corev1.ResourceList) int64 {
	if q, ok := rl[corev1.ResourceMemory]; ok {
		return q.Value()
	}
	return 0
}
