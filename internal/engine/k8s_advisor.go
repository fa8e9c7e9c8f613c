package engine

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed advisor.yaml
var advisorYAML []byte

// AdvisorItem is one issue and its fix within a recommendation category.
type AdvisorItem struct {
	Issue          string `yaml:"issue"          json:"issue"`
	Solution       string `yaml:"solution"       json:"solution"`
	Impact         string `yaml:"impact"         json:"impact"`
	Implementation string `yaml:"implementation" json:"implementation"`
}

// AdvisorCategory groups recommendations by area.
type AdvisorCategory struct {
	Category        string        `yaml:"category"        json:"category"`
	Recommendations []AdvisorItem `yaml:"recommendations" json:"recommendations"`
}

// AdvisorStrategy is a cost optimization strategy. Only the lists relevant
// to a strategy are set.
type AdvisorStrategy struct {
	Strategy            string   `yaml:"strategy"             json:"strategy"`
	Description         string   `yaml:"description"          json:"description"`
	Savings             string   `yaml:"savings"              json:"savings"`
	ImplementationSteps []string `yaml:"implementation_steps" json:"implementation_steps,omitempty"`
	BestPractices       []string `yaml:"best_practices"       json:"best_practices,omitempty"`
	Tools               []string `yaml:"tools"                json:"tools,omitempty"`
	UseCases            []string `yaml:"use_cases"            json:"use_cases,omitempty"`
	Considerations      []string `yaml:"considerations"       json:"considerations,omitempty"`
}

// AdvisorTool is a suggested monitoring tool.
type AdvisorTool struct {
	Tool     string   `yaml:"tool"     json:"tool"`
	Purpose  string   `yaml:"purpose"  json:"purpose"`
	Features []string `yaml:"features" json:"features,omitempty"`
	Metrics  []string `yaml:"metrics"  json:"metrics,omitempty"`
}

// ChecklistSection is one area of the EKS optimization checklist.
type ChecklistSection struct {
	Category string   `yaml:"category" json:"category"`
	Items    []string `yaml:"items"    json:"items"`
}

type savingsModel struct {
	BaselineMonthlyCost float64            `yaml:"baseline_monthly_cost"`
	TotalRatio          float64            `yaml:"total_ratio"`
	Ratios              map[string]float64 `yaml:"ratios"`
}

// AdvisorCatalog is the static guidance the k8s-advisor function serves.
type AdvisorCatalog struct {
	ResourceRecommendations    []AdvisorCategory  `yaml:"resource_recommendations"`
	CostOptimizationStrategies []AdvisorStrategy  `yaml:"cost_optimization_strategies"`
	MonitoringSuggestions      []AdvisorTool      `yaml:"monitoring_suggestions"`
	EKSOptimizationChecklist   []ChecklistSection `yaml:"eks_optimization_checklist"`
	SavingsModel               savingsModel       `yaml:"savings_model"`
}

// ParseAdvisorCatalog decodes a catalog document.
func ParseAdvisorCatalog(data []byte) (*AdvisorCatalog, error) {
	var c AdvisorCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse advisor catalog: %w", err)
	}
	if c.SavingsModel.BaselineMonthlyCost <= 0 {
		return nil, fmt.Errorf("parse advisor catalog: baseline_monthly_cost must be positive")
	}
	return &c, nil
}

// KubernetesSavings is the savings estimate for the reference cluster.
type KubernetesSavings struct {
	BaselineMonthlyCost          float64            `json:"baseline_monthly_cost"`
	SavingsBreakdown             map[string]float64 `json:"savings_breakdown"`
	TotalPotentialMonthlySavings float64            `json:"total_potential_monthly_savings"`
	AnnualSavingsPotential       float64            `json:"annual_savings_potential"`
}

// Savings applies the catalog's savings model.
func (c *AdvisorCatalog) Savings() KubernetesSavings {
	baseline := decimal.NewFromFloat(c.SavingsModel.BaselineMonthlyCost)

	breakdown := make(map[string]float64, len(c.SavingsModel.Ratios))
	for name, ratio := range c.SavingsModel.Ratios {
		breakdown[name] = baseline.Mul(decimal.NewFromFloat(ratio)).Round(2).InexactFloat64()
	}
	total := baseline.Mul(decimal.NewFromFloat(c.SavingsModel.TotalRatio)).Round(2)

	return KubernetesSavings{
		BaselineMonthlyCost:          baseline.InexactFloat64(),
		SavingsBreakdown:             breakdown,
		TotalPotentialMonthlySavings: total.InexactFloat64(),
		AnnualSavingsPotential:       total.Mul(decimal.NewFromInt(12)).InexactFloat64(),
	}
}

// K8sAdvisorBody is the k8s-advisor response body.
type K8sAdvisorBody struct {
	ResourceRecommendations    []AdvisorCategory  `json:"resource_recommendations"`
	CostOptimizationStrategies []AdvisorStrategy  `json:"cost_optimization_strategies"`
	MonitoringSuggestions      []AdvisorTool      `json:"monitoring_suggestions"`
	EKSOptimizationChecklist   []ChecklistSection `json:"eks_optimization_checklist"`
	PotentialSavings           KubernetesSavings  `json:"potential_savings"`
}

// K8sAdvisor serves general Kubernetes cost guidance. It needs no AWS or
// cluster access.
type K8sAdvisor struct {
	catalog *AdvisorCatalog
}

// NewK8sAdvisor returns the k8s-advisor function over catalog. A nil
// catalog selects the embedded one.
func NewK8sAdvisor(catalog *AdvisorCatalog) (*K8sAdvisor, error) {
	if catalog == nil {
		var err error
		if catalog, err = ParseAdvisorCatalog(advisorYAML); err != nil {
			return nil, err
		}
	}
	return &K8sAdvisor{catalog: catalog}, nil
}

func (f *K8sAdvisor) ID() string          { return FunctionK8sAdvisor }
func (f *K8sAdvisor) Description() string { return "Kubernetes cost optimization guidance and savings estimate" }

func (f *K8sAdvisor) Run(_ context.Context, _ Request) (*Result, error) {
	return &Result{
		FunctionID: f.ID(),
		Body: K8sAdvisorBody{
			ResourceRecommendations:    f.catalog.ResourceRecommendations,
			CostOptimizationStrategies: f.catalog.CostOptimizationStrategies,
			MonitoringSuggestions:      f.catalog.MonitoringSuggestions,
			EKSOptimizationChecklist:   f.catalog.EKSOptimizationChecklist,
			PotentialSavings:           f.catalog.Savings(),
		},
	}, nil
}
