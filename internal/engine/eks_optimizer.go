package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/eks"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/kubernetes"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/eks_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

// ClusterAnalysis is the monthly cost picture of one EKS cluster.
type ClusterAnalysis struct {
	ClusterName      string   `json:"cluster_name"`
	Region           string   `json:"region"`
	Version          string   `json:"version"`
	Status           string   `json:"status"`
	Nodegroups       int      `json:"node_groups"`
	TotalNodes       int      `json:"total_nodes"`
	ControlPlaneCost float64  `json:"control_plane_cost"`
	NodeCost         float64  `json:"estimated_node_cost"`
	Recommendations  []string `json:"recommendations"`
}

// EKSOptimizerBody is the eks-optimizer response body.
type EKSOptimizerBody struct {
	ClusterAnalysis       []ClusterAnalysis `json:"cluster_analysis"`
	NodeGroupOptimization []models.Finding  `json:"node_group_optimization"`
	PodRightsizing        []models.Finding  `json:"pod_rightsizing"`
	SpotOpportunities     []models.Finding  `json:"spot_opportunities"`
	PotentialSavings      float64           `json:"potential_savings"`
}

// EKSOptimizer reviews EKS clusters and their managed nodegroups and, when
// a kubeconfig context is configured, the resource hygiene of the pods in
// that cluster.
type EKSOptimizer struct {
	env         *Env
	clusters    eks.EKSCollector
	kube        kubernetes.KubeClientProvider
	kubeContext string
}

// NewEKSOptimizer returns the eks-optimizer function. Pod checks run only
// when kube is non-nil and kubeContext is set.
func NewEKSOptimizer(env *Env, clusters eks.EKSCollector, kube kubernetes.KubeClientProvider, kubeContext string) *EKSOptimizer {
	return &EKSOptimizer{env: env, clusters: clusters, kube: kube, kubeContext: kubeContext}
}

func (f *EKSOptimizer) ID() string          { return FunctionEKSOptimizer }
func (f *EKSOptimizer) Description() string { return "Optimize EKS nodegroups, cluster versions and pod resources" }

func (f *EKSOptimizer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}

	var clusters []models.EKSCluster
	for _, region := range s.regions {
		found, err := f.clusters.Clusters(ctx, s.config(region))
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("clusters in %s: %w", region, err)
			}
			continue
		}
		clusters = append(clusters, found...)
	}

	workloads := f.workloads(ctx)
	matched := false

	var all []models.Finding
	analysis := make([]ClusterAnalysis, 0, len(clusters))
	for i := range clusters {
		c := &clusters[i]

		rc := f.env.ruleContext(s)
		rc.Cluster = c
		if workloads != nil && contextMatches(workloads.ContextName, c) {
			rc.Workloads = workloads
			matched = true
		}
		findings := f.env.evaluate(f.ID(), eks_optimizer.New(), rc)
		all = append(all, findings...)
		analysis = append(analysis, f.analyse(c, findings))
	}

	// Workloads from a context that names no discovered cluster are still
	// checked, without a region.
	if workloads != nil && !matched {
		rc := f.env.ruleContext(s)
		rc.Workloads = workloads
		all = append(all, f.env.evaluate(f.ID(), eks_optimizer.New(), rc)...)
	}

	onDemand := byRule(all, rules.EKSNodegroupOnDemandRule{}.ID())
	nodegroups := append(byRule(all, rules.EKSNodegroupAtMaxRule{}.ID()), byRule(all, rules.EKSNodegroupSingleTypeRule{}.ID())...)
	pods := append(byRule(all, rules.K8SPodNoRequestsRule{}.ID()), byRule(all, rules.K8SPodNoMemoryLimitRule{}.ID())...)

	return &Result{
		FunctionID: f.ID(),
		Body: EKSOptimizerBody{
			ClusterAnalysis:       analysis,
			NodeGroupOptimization: nodegroups,
			PodRightsizing:        pods,
			SpotOpportunities:     onDemand,
			PotentialSavings:      totalSavings(all),
		},
		Findings: all,
	}, nil
}

// workloads reads the pod inventory through the configured context. Any
// failure disables the pod checks for this run.
func (f *EKSOptimizer) workloads(ctx context.Context) *models.KubernetesWorkloads {
	if f.kube == nil || f.kubeContext == "" {
		return nil
	}
	log := f.env.logger().With("function", f.ID(), "context", f.kubeContext)

	clientset, info, err := f.kube.ClientsetForContext(f.kubeContext)
	if err != nil {
		log.Warn("pod analysis unavailable", "error", err)
		return nil
	}
	w, err := kubernetes.CollectWorkloads(ctx, clientset, info)
	if err != nil {
		log.Warn("pod analysis unavailable", "error", err)
		return nil
	}
	return w
}

// analyse prices the cluster and lists the recommendations of its findings.
func (f *EKSOptimizer) analyse(c *models.EKSCluster, findings []models.Finding) ClusterAnalysis {
	p := f.env.prices()

	var nodeCost float64
	for _, ng := range c.Nodegroups {
		class := ""
		if len(ng.InstanceTypes) > 0 {
			class = ng.InstanceTypes[0]
		}
		hourly, _ := p.HourlyCost(class)
		nodeCost += float64(ng.DesiredSize) * hourly * pricing.HoursPerMonth
	}

	recs := []string{}
	for _, finding := range findings {
		if finding.ResourceType == models.ResourceAWSEKSCluster {
			recs = append(recs, finding.Recommendation)
		}
	}

	return ClusterAnalysis{
		ClusterName:      c.Name,
		Region:           c.Region,
		Version:          c.Version,
		Status:           c.Status,
		Nodegroups:       len(c.Nodegroups),
		TotalNodes:       c.TotalDesiredNodes(),
		ControlPlaneCost: roundCents(pricing.MonthlyUnitCost(p, "eks:control-plane-hourly")),
		NodeCost:         roundCents(nodeCost),
		Recommendations:  recs,
	}
}

// contextMatches reports whether a kubeconfig context refers to c. EKS
// contexts are usually the cluster ARN or end in "/<name>".
func contextMatches(contextName string, c *models.EKSCluster) bool {
	if contextName == "" {
		return false
	}
	if contextName == c.Name || (c.ARN != "" && contextName == c.ARN) {
		return true
	}
	return strings.HasSuffix(contextName, "/"+c.Name) || strings.HasSuffix(contextName, "@"+c.Name)
}
