package models

import "time"

// ---------------------------------------------------------------------------
// AWS raw resource models (collected by provider, consumed by rule engine)
// ---------------------------------------------------------------------------

// AWSEC2Instance represents a single collected EC2 instance.
type AWSEC2Instance struct {
	InstanceID       string    `json:"instance_id"`
	Region           string    `json:"region"`
	AvailabilityZone string    `json:"availability_zone"`
	InstanceType     string    `json:"instance_type"`
	State            string    `json:"state"`
	LaunchTime       time.Time `json:"launch_time"`

	// Lifecycle is "spot" or "scheduled"; empty means on-demand.
	Lifecycle string `json:"lifecycle,omitempty"`

	// AvgCPUPercent is the CloudWatch average over the lookback window.
	// CPUDatapoints is the number of datapoints it was computed from; 0
	// means no data, not an idle instance.
	AvgCPUPercent float64 `json:"avg_cpu_percent"`
	CPUDatapoints int     `json:"cpu_datapoints"`

	// SpotPrice is the latest Linux/UNIX spot price in the instance's AZ.
	// 0 means it was not looked up or is unavailable.
	SpotPrice float64 `json:"spot_price,omitempty"`

	SecurityGroupIDs []string          `json:"security_group_ids,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// OnDemand reports whether the instance is billed at on-demand rates.
func (i AWSEC2Instance) OnDemand() bool { return i.Lifecycle == "" }

// AWSEBSVolume represents a single collected EBS volume.
type AWSEBSVolume struct {
	VolumeID   string            `json:"volume_id"`
	Region     string            `json:"region"`
	VolumeType string            `json:"volume_type"`
	SizeGB     int32             `json:"size_gb"`
	State      string            `json:"state"`
	Attached   bool              `json:"attached"`
	InstanceID string            `json:"instance_id,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// AWSEBSSnapshot represents a self-owned EBS snapshot.
type AWSEBSSnapshot struct {
	SnapshotID  string    `json:"snapshot_id"`
	Region      string    `json:"region"`
	VolumeID    string    `json:"volume_id"`
	SizeGB      int32     `json:"size_gb"`
	StartTime   time.Time `json:"start_time"`
	Description string    `json:"description,omitempty"`

	// SourceVolumeExists is false when VolumeID no longer resolves to a
	// volume in the region.
	SourceVolumeExists bool `json:"source_volume_exists"`
}

// AWSNATGateway represents a single collected NAT Gateway.
type AWSNATGateway struct {
	NATGatewayID     string            `json:"nat_gateway_id"`
	Region           string            `json:"region"`
	State            string            `json:"state"`
	VPCID            string            `json:"vpc_id"`
	SubnetID         string            `json:"subnet_id"`
	BytesProcessedGB float64           `json:"bytes_processed_gb"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// AWSVPCEndpoint is a VPC endpoint; ServiceName is the full
// "com.amazonaws.<region>.<service>" name.
type AWSVPCEndpoint struct {
	EndpointID  string `json:"endpoint_id"`
	VPCID       string `json:"vpc_id"`
	ServiceName string `json:"service_name"`
	Type        string `json:"type"`
}

// AWSRDSInstance represents a single collected RDS database instance.
type AWSRDSInstance struct {
	DBInstanceID    string            `json:"db_instance_id"`
	Region          string            `json:"region"`
	DBInstanceClass string            `json:"db_instance_class"`
	Engine          string            `json:"engine"`
	MultiAZ         bool              `json:"multi_az"`
	Status          string            `json:"status"`
	AvgCPUPercent   float64           `json:"avg_cpu_percent"`
	AvgConnections  float64           `json:"avg_connections"`
	CPUDatapoints   int               `json:"cpu_datapoints"`
	Tags            map[string]string `json:"tags,omitempty"`
}

// AWSLoadBalancer represents a single collected Elastic Load Balancer.
type AWSLoadBalancer struct {
	LoadBalancerARN  string `json:"load_balancer_arn"`
	LoadBalancerName string `json:"load_balancer_name"`
	DNSName          string `json:"dns_name"`
	Region           string `json:"region"`
	Type             string `json:"type"` // application | network | gateway
	State            string `json:"state"`

	// TargetGroups and HealthyTargets are populated only when
	// TargetHealthKnown is true.
	TargetGroups      int  `json:"target_groups"`
	HealthyTargets    int  `json:"healthy_targets"`
	TargetHealthKnown bool `json:"target_health_known"`
}

// AWSSecurityGroup represents a VPC security group and whether any
// instance in the region references it.
type AWSSecurityGroup struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	VPCID     string `json:"vpc_id"`
	Region    string `json:"region"`
	InUse     bool   `json:"in_use"`
}

// AWSElasticIP represents an allocated Elastic IP address.
type AWSElasticIP struct {
	AllocationID       string `json:"allocation_id"`
	PublicIP           string `json:"public_ip"`
	Region             string `json:"region"`
	InstanceID         string `json:"instance_id,omitempty"`
	AssociationID      string `json:"association_id,omitempty"`
	NetworkInterfaceID string `json:"network_interface_id,omitempty"`
}

// Attached reports whether the address is associated with anything.
func (e AWSElasticIP) Attached() bool {
	return e.InstanceID != "" || e.AssociationID != "" || e.NetworkInterfaceID != ""
}

// AWSS3Bucket holds lifecycle state and an object scan for one bucket.
type AWSS3Bucket struct {
	Name           string `json:"name"`
	Region         string `json:"region"`
	HasLifecycle   bool   `json:"has_lifecycle"`
	ObjectCount    int64  `json:"object_count"`
	OldObjectCount int64  `json:"old_object_count"`
	TotalSizeBytes int64  `json:"total_size_bytes"`

	// ScanTruncated is true when the object scan stopped at the page limit.
	ScanTruncated bool `json:"scan_truncated,omitempty"`
}

// AWSAutoScalingGroup represents an EC2 Auto Scaling group.
type AWSAutoScalingGroup struct {
	Name                    string `json:"name"`
	Region                  string `json:"region"`
	HasMixedInstancesPolicy bool   `json:"has_mixed_instances_policy"`
	LaunchTemplate          string `json:"launch_template,omitempty"`
	LaunchConfiguration     string `json:"launch_configuration,omitempty"`
	MinSize                 int32  `json:"min_size"`
	MaxSize                 int32  `json:"max_size"`
	DesiredCapacity         int32  `json:"desired_capacity"`
	InstanceCount           int    `json:"instance_count"`
}

// AWSSavingsPlanCoverage holds Savings Plan coverage data for a region over
// the collection period.
type AWSSavingsPlanCoverage struct {
	Region          string  `json:"region"`
	CoveragePercent float64 `json:"coverage_percent"`
	OnDemandCostUSD float64 `json:"on_demand_cost_usd"`
	CoveredCostUSD  float64 `json:"covered_cost_usd"`
}

// AWSRegionData holds all raw resource data collected from a single AWS
// region. Each function populates only the slices its rules read.
type AWSRegionData struct {
	Region              string                   `json:"region"`
	EC2Instances        []AWSEC2Instance         `json:"ec2_instances,omitempty"`
	EBSVolumes          []AWSEBSVolume           `json:"ebs_volumes,omitempty"`
	EBSSnapshots        []AWSEBSSnapshot         `json:"ebs_snapshots,omitempty"`
	NATGateways         []AWSNATGateway          `json:"nat_gateways,omitempty"`
	VPCEndpoints        []AWSVPCEndpoint         `json:"vpc_endpoints,omitempty"`
	RDSInstances        []AWSRDSInstance         `json:"rds_instances,omitempty"`
	LoadBalancers       []AWSLoadBalancer        `json:"load_balancers,omitempty"`
	SecurityGroups      []AWSSecurityGroup       `json:"security_groups,omitempty"`
	ElasticIPs          []AWSElasticIP           `json:"elastic_ips,omitempty"`
	S3Buckets           []AWSS3Bucket            `json:"s3_buckets,omitempty"`
	AutoScalingGroups   []AWSAutoScalingGroup    `json:"autoscaling_groups,omitempty"`
	SavingsPlanCoverage []AWSSavingsPlanCoverage `json:"savings_plan_coverage,omitempty"`
}
