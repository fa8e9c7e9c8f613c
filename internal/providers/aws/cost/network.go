package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// SecurityGroups returns every security group in cfg.Region. InUse is true
// when any network interface references the group. Network interfaces cover
// instances as well as Lambda, RDS and load balancer attachments.
func (d *DefaultCostCollector) SecurityGroups(ctx context.Context, cfg aws.Config) ([]models.AWSSecurityGroup, error) {
	clients := d.factory(cfg)

	inUse := make(map[string]struct{})
	eniPaginator := ec2svc.NewDescribeNetworkInterfacesPaginator(clients.EC2, &ec2svc.DescribeNetworkInterfacesInput{})
	for eniPaginator.HasMorePages() {
		page, err := eniPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("SecurityGroups: %w", common.Classify("ec2", "DescribeNetworkInterfaces", cfg.Region, err))
		}
		for _, eni := range page.NetworkInterfaces {
			for _, g := range eni.Groups {
				inUse[aws.ToString(g.GroupId)] = struct{}{}
			}
		}
	}

	var groups []models.AWSSecurityGroup
	sgPaginator := ec2svc.NewDescribeSecurityGroupsPaginator(clients.EC2, &ec2svc.DescribeSecurityGroupsInput{})
	for sgPaginator.HasMorePages() {
		page, err := sgPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("SecurityGroups: %w", common.Classify("ec2", "DescribeSecurityGroups", cfg.Region, err))
		}
		for _, sg := range page.SecurityGroups {
			id := aws.ToString(sg.GroupId)
			_, used := inUse[id]
			groups = append(groups, models.AWSSecurityGroup{
				GroupID:   id,
				GroupName: aws.ToString(sg.GroupName),
				VPCID:     aws.ToString(sg.VpcId),
				Region:    cfg.Region,
				InUse:     used,
			})
		}
	}
	return groups, nil
}

// ElasticIPs returns every Elastic IP allocated in cfg.Region.
func (d *DefaultCostCollector) ElasticIPs(ctx context.Context, cfg aws.Config) ([]models.AWSElasticIP, error) {
	clients := d.factory(cfg)
	out, err := clients.EC2.DescribeAddresses(ctx, &ec2svc.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("ElasticIPs: %w", common.Classify("ec2", "DescribeAddresses", cfg.Region, err))
	}

	ips := make([]models.AWSElasticIP, 0, len(out.Addresses))
	for _, a := range out.Addresses {
		ips = append(ips, models.AWSElasticIP{
			AllocationID:       aws.ToString(a.AllocationId),
			PublicIP:           aws.ToString(a.PublicIp),
			Region:             cfg.Region,
			InstanceID:         aws.ToString(a.InstanceId),
			AssociationID:      aws.ToString(a.AssociationId),
			NetworkInterfaceID: aws.ToString(a.NetworkInterfaceId),
		})
	}
	return ips, nil
}
