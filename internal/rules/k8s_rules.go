package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// ── K8S_POD_NO_REQUESTS ───────────────────────────────────────────────────────

// K8SPodNoRequestsRule fires for each container that is missing a CPU or
// memory request. Without requests the scheduler packs nodes blindly and
// the cluster autoscaler cannot size nodegroups.
type K8SPodNoRequestsRule struct{}

func (r K8SPodNoRequestsRule) ID() string { return "K8S_POD_NO_REQUESTS" }
func (r K8SPodNoRequestsRule) Name() string {
	return "Kubernetes Container Missing Resource Requests"
}

func (r K8SPodNoRequestsRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Workloads == nil {
		return nil
	}
	w := ctx.Workloads

	var findings []models.Finding
	for _, pod := range w.Pods {
		for _, c := range pod.Containers {
			if c.CPURequestMillis > 0 && c.MemoryRequestBytes > 0 {
				continue
			}
			findings = append(findings, models.Finding{
				ID:           fmt.Sprintf("%s:%s:%s/%s/%s", r.ID(), w.ContextName, pod.Namespace, pod.Name, c.Name),
				RuleID:       r.ID(),
				ResourceID:   pod.Namespace + "/" + pod.Name,
				ResourceType: models.ResourceK8sPod,
				Region:       clusterRegion(ctx),
				AccountID:    ctx.AccountID,
				Profile:      ctx.Profile,
				Severity:     models.SeverityMedium,
				Explanation: fmt.Sprintf(
					"Container %q in pod %q (namespace %q) is missing CPU or memory requests.",
					c.Name, pod.Name, pod.Namespace,
				),
				Recommendation: "Set CPU and memory requests from observed usage so nodes can be packed and scaled accurately.",
				DetectedAt:     ctx.now(),
				Metadata: map[string]any{
					"context":            w.ContextName,
					"namespace":          pod.Namespace,
					"container_name":     c.Name,
					"cpu_request_millis": c.CPURequestMillis,
					"memory_request":     c.MemoryRequestBytes,
				},
			})
		}
	}
	return findings
}

// ── K8S_POD_NO_MEMORY_LIMIT ───────────────────────────────────────────────────

// K8SPodNoMemoryLimitRule fires for each container without a memory limit.
// An unbounded container can grow until the node is evicting neighbours,
// which forces headroom to be overprovisioned.
type K8SPodNoMemoryLimitRule struct{}

func (r K8SPodNoMemoryLimitRule) ID() string   { return "K8S_POD_NO_MEMORY_LIMIT" }
func (r K8SPodNoMemoryLimitRule) Name() string { return "Kubernetes Container Missing Memory Limit" }

func (r K8SPodNoMemoryLimitRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Workloads == nil {
		return nil
	}
	w := ctx.Workloads

	var findings []models.Finding
	for _, pod := range w.Pods {
		for _, c := range pod.Containers {
			if c.MemoryLimitBytes > 0 {
				continue
			}
			findings = append(findings, models.Finding{
				ID:             fmt.Sprintf("%s:%s:%s/%s/%s", r.ID(), w.ContextName, pod.Namespace, pod.Name, c.Name),
				RuleID:         r.ID(),
				ResourceID:     pod.Namespace + "/" + pod.Name,
				ResourceType:   models.ResourceK8sPod,
				Region:         clusterRegion(ctx),
				AccountID:      ctx.AccountID,
				Profile:        ctx.Profile,
				Severity:       models.SeverityLow,
				Explanation:    fmt.Sprintf("Container %q in pod %q (namespace %q) has no memory limit.", c.Name, pod.Name, pod.Namespace),
				Recommendation: "Set a memory limit close to the container's peak working set.",
				DetectedAt:     ctx.now(),
				Metadata: map[string]any{
					"context":        w.ContextName,
					"namespace":      pod.Namespace,
					"container_name": c.Name,
				},
			})
		}
	}
	return findings
}

// clusterRegion returns the EKS cluster's region, or "" outside EKS.
func clusterRegion(ctx RuleContext) string {
	if ctx.Cluster == nil {
		return ""
	}
	return ctx.Cluster.Region
}
