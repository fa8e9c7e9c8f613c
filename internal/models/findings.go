package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ResourceType identifies the kind of cloud resource a finding refers to.
type ResourceType string

const (
	ResourceAWSAccount          ResourceType = "AWS_ACCOUNT"
	ResourceAWSEC2              ResourceType = "EC2_INSTANCE"
	ResourceAWSEBS              ResourceType = "EBS_VOLUME"
	ResourceAWSEBSSnapshot      ResourceType = "EBS_SNAPSHOT"
	ResourceAWSNATGateway       ResourceType = "NAT_GATEWAY"
	ResourceAWSRDS              ResourceType = "RDS_INSTANCE"
	ResourceAWSLoadBalancer     ResourceType = "LOAD_BALANCER"
	ResourceAWSReservedInstance ResourceType = "RESERVED_INSTANCE"
	ResourceAWSSavingsPlan      ResourceType = "SAVINGS_PLAN"
	ResourceAWSCostAnomaly      ResourceType = "COST_ANOMALY"
	ResourceAWSS3Bucket         ResourceType = "S3_BUCKET"
	ResourceAWSSecurityGroup    ResourceType = "SECURITY_GROUP"
	ResourceAWSElasticIP        ResourceType = "ELASTIC_IP"
	ResourceAWSAutoScalingGroup ResourceType = "AUTOSCALING_GROUP"
	ResourceAWSBudget           ResourceType = "BUDGET"
	ResourceAWSRegion           ResourceType = "REGION"
	ResourceAWSEKSCluster       ResourceType = "EKS_CLUSTER"
	ResourceAWSEKSNodegroup     ResourceType = "EKS_NODEGROUP"

	ResourceK8sPod ResourceType = "K8S_POD"
)

// Finding is a single detected waste or inefficiency issue.
// It is the atomic output unit of the rule engine.
type Finding struct {
	ID                      string         `json:"id"`
	RuleID                  string         `json:"rule_id"`
	ResourceID              string         `json:"resource_id"`
	ResourceType            ResourceType   `json:"resource_type"`
	Region                  string         `json:"region"`
	AccountID               string         `json:"account_id"`
	Profile                 string         `json:"profile"`
	Domain                  string         `json:"domain"`
	Severity                Severity       `json:"severity"`
	EstimatedMonthlySavings float64        `json:"estimated_monthly_savings_usd"`
	Explanation             string         `json:"explanation"`
	Recommendation          string         `json:"recommendation"`
	DetectedAt              time.Time      `json:"detected_at"`
	Metadata                map[string]any `json:"metadata,omitempty"`
}

// Summary aggregates counts and totals across a set of findings.
type Summary struct {
	TotalFindings                int     `json:"total_findings"`
	CriticalFindings             int     `json:"critical_findings"`
	HighFindings                 int     `json:"high_findings"`
	MediumFindings               int     `json:"medium_findings"`
	LowFindings                  int     `json:"low_findings"`
	TotalEstimatedMonthlySavings float64 `json:"total_estimated_monthly_savings_usd"`
}
