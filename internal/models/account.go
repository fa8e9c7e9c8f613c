package models

// ---------------------------------------------------------------------------
// AWS account-level models (Cost Explorer, Organizations, Budgets, Tagging)
// ---------------------------------------------------------------------------

// AWSServiceCost holds the aggregated cost for a single AWS service.
type AWSServiceCost struct {
	Service string  `json:"service"`
	CostUSD float64 `json:"cost_usd"`
}

// AWSCostSummary holds account-level Cost Explorer data for a billing period.
type AWSCostSummary struct {
	PeriodStart      string           `json:"period_start"`
	PeriodEnd        string           `json:"period_end"`
	TotalCostUSD     float64          `json:"total_cost_usd"`
	ServiceBreakdown []AWSServiceCost `json:"service_breakdown"`
}

// AWSRIUtilization is the utilization of one reserved instance subscription.
type AWSRIUtilization struct {
	SubscriptionID     string  `json:"subscription_id"`
	InstanceType       string  `json:"instance_type,omitempty"`
	Region             string  `json:"region,omitempty"`
	UtilizationPercent float64 `json:"utilization_percentage"`
	PurchasedHours     float64 `json:"purchased_hours"`
	UnusedHours        float64 `json:"unused_hours"`
	NetSavingsUSD      float64 `json:"net_ri_savings"`
}

// AWSRightsizingRecommendation is one Cost Explorer EC2 rightsizing
// recommendation.
type AWSRightsizingRecommendation struct {
	AccountID               string  `json:"account_id"`
	ResourceID              string  `json:"resource_id"`
	Region                  string  `json:"region,omitempty"`
	InstanceType            string  `json:"current_instance_type"`
	Action                  string  `json:"recommended_action"` // MODIFY | TERMINATE
	TargetInstanceType      string  `json:"target_instance_type,omitempty"`
	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings"`
}

// AWSReservationCoverage is the account-wide reserved instance coverage for
// a period.
type AWSReservationCoverage struct {
	PeriodStart     string  `json:"period_start"`
	PeriodEnd       string  `json:"period_end"`
	CoveragePercent float64 `json:"coverage_percentage"`
	OnDemandHours   float64 `json:"on_demand_hours"`
	ReservedHours   float64 `json:"reserved_hours"`
	OnDemandCostUSD float64 `json:"on_demand_cost"`
}

// AWSOrgAccount is a member account of an AWS Organization with its spend
// for the current and previous 30-day windows.
type AWSOrgAccount struct {
	ID              string  `json:"account_id"`
	Name            string  `json:"account_name"`
	Email           string  `json:"email,omitempty"`
	Status          string  `json:"status"`
	CurrentCostUSD  float64 `json:"current_month_cost"`
	PreviousCostUSD float64 `json:"previous_month_cost"`
}

// AWSBudget is an AWS Budgets budget with its actual spend.
type AWSBudget struct {
	Name              string  `json:"budget_name"`
	Type              string  `json:"budget_type"`
	TimeUnit          string  `json:"time_unit"`
	LimitUSD          float64 `json:"budget_limit"`
	ActualSpendUSD    float64 `json:"actual_spend"`
	ForecastSpendUSD  float64 `json:"forecasted_spend"`
	HasCalculatedData bool    `json:"-"`
}

// TaggingCompliance summarises how many tagged resources carry every
// required tag key.
type TaggingCompliance struct {
	RequiredTags       []string       `json:"required_tags"`
	ResourcesEvaluated int            `json:"resources_evaluated"`
	Compliant          int            `json:"compliant_resources"`
	CompliancePercent  float64        `json:"compliance_percentage"`
	MissingByTag       map[string]int `json:"missing_by_tag,omitempty"`
}

// AWSAccountData holds account-wide and global data that is not tied to a
// single region.
type AWSAccountData struct {
	RIUtilization       []AWSRIUtilization             `json:"ri_utilization,omitempty"`
	Rightsizing         []AWSRightsizingRecommendation `json:"rightsizing,omitempty"`
	ReservationCoverage *AWSReservationCoverage        `json:"reservation_coverage,omitempty"`
	Accounts            []AWSOrgAccount                `json:"accounts,omitempty"`
	Budgets             []AWSBudget                    `json:"budgets,omitempty"`
	Tagging             *TaggingCompliance             `json:"tagging,omitempty"`
	Anomalies           []AWSCostAnomaly               `json:"anomalies,omitempty"`

	// CloudFrontOrigins lists every origin domain name of every
	// CloudFront distribution in the account.
	CloudFrontOrigins []string `json:"cloudfront_origins,omitempty"`

	// RegionInstanceCounts maps region to the number of running instances.
	RegionInstanceCounts map[string]int `json:"region_instance_counts,omitempty"`
}

// AWSCostAnomaly is one Cost Anomaly Detection finding. Dates are
// "2006-01-02" strings as returned by Cost Explorer.
type AWSCostAnomaly struct {
	ID          string  `json:"anomaly_id"`
	Service     string  `json:"service,omitempty"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	MaxImpact   float64 `json:"max_impact"`
	TotalImpact float64 `json:"total_impact"`
}
