package models

// EKSNodegroup holds the cost-relevant configuration of a managed nodegroup.
type EKSNodegroup struct {
	Name          string   `json:"nodegroup_name"`
	ClusterName   string   `json:"cluster_name"`
	Status        string   `json:"status"`
	CapacityType  string   `json:"capacity_type"` // ON_DEMAND | SPOT
	InstanceTypes []string `json:"instance_types"`
	MinSize       int32    `json:"min_size"`
	MaxSize       int32    `json:"max_size"`
	DesiredSize   int32    `json:"desired_size"`
}

// EKSCluster holds one EKS cluster and its managed nodegroups.
type EKSCluster struct {
	Name            string         `json:"cluster_name"`
	ARN             string         `json:"arn,omitempty"`
	Region          string         `json:"region"`
	Version         string         `json:"version"`
	Status          string         `json:"status"`
	Nodegroups      []EKSNodegroup `json:"nodegroups"`
	FargateProfiles int            `json:"fargate_profiles"`
}

// TotalDesiredNodes sums DesiredSize across all nodegroups.
func (c EKSCluster) TotalDesiredNodes() int {
	var n int
	for _, ng := range c.Nodegroups {
		n += int(ng.DesiredSize)
	}
	return n
}

// KubernetesContainer holds the resource requests and limits of one
// container. A zero value means the request or limit is not set.
type KubernetesContainer struct {
	Name               string `json:"name"`
	CPURequestMillis   int64  `json:"cpu_request_millis"`
	MemoryRequestBytes int64  `json:"memory_request_bytes"`
	CPULimitMillis     int64  `json:"cpu_limit_millis"`
	MemoryLimitBytes   int64  `json:"memory_limit_bytes"`
}

// KubernetesPod holds processed pod data consumed by pod rightsizing rules.
type KubernetesPod struct {
	Name       string                `json:"name"`
	Namespace  string                `json:"namespace"`
	Phase      string                `json:"phase"`
	Containers []KubernetesContainer `json:"containers"`
}

// KubernetesWorkloads is the workload inventory of one cluster, read
// through a kubeconfig context.
type KubernetesWorkloads struct {
	ContextName string          `json:"context_name"`
	NodeCount   int             `json:"node_count"`
	Pods        []KubernetesPod `json:"pods"`
}
