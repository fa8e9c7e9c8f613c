package rules

import (
	"testing"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

func workloadsCtx() RuleContext {
	return RuleContext{
		AccountID: testAccount,
		Profile:   testProfile,
		Now:       testNow,
		Cluster:   &models.EKSCluster{Name: "prod", Region: "eu-west-1"},
		Workloads: &models.KubernetesWorkloads{
			ContextName: "prod",
			NodeCount:   3,
			Pods: []models.KubernetesPod{
				{Name: "api", Namespace: "web", Containers: []models.KubernetesContainer{
					{Name: "app", CPURequestMillis: 250, MemoryRequestBytes: 256 << 20, MemoryLimitBytes: 512 << 20},
					{Name: "sidecar", CPURequestMillis: 50},
				}},
				{Name: "worker", Namespace: "jobs", Containers: []models.KubernetesContainer{
					{Name: "run", MemoryLimitBytes: 1 << 30},
				}},
			},
		},
	}
}

func TestK8SPodNoRequestsRule(t *testing.T) {
	if got := (K8SPodNoRequestsRule{}).Evaluate(RuleContext{}); got != nil {
		t.Errorf("expected nil without workloads, got %d", len(got))
	}

	got := K8SPodNoRequestsRule{}.Evaluate(workloadsCtx())
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].ID != "K8S_POD_NO_REQUESTS:prod:web/api/sidecar" {
		t.Errorf("ID = %q", got[0].ID)
	}
	if got[1].ResourceID != "jobs/worker" {
		t.Errorf("ResourceID = %q; want jobs/worker", got[1].ResourceID)
	}
	if got[0].Region != "eu-west-1" {
		t.Errorf("Region = %q; want the cluster region", got[0].Region)
	}
}

func TestK8SPodNoMemoryLimitRule(t *testing.T) {
	got := K8SPodNoMemoryLimitRule{}.Evaluate(workloadsCtx())
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
	if got[0].Metadata["container_name"] != "sidecar" {
		t.Errorf("container_name = %v; want sidecar", got[0].Metadata["container_name"])
	}

	ctx := workloadsCtx()
	ctx.Cluster = nil
	if got := (K8SPodNoMemoryLimitRule{}).Evaluate(ctx); len(got) != 1 || got[0].Region != "" {
		t.Errorf("expected empty region outside EKS, got %+v", got)
	}
}
