package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// RDSInstances pages through all RDS database instances in cfg.Region and
// enriches every available instance with average CPUUtilization and
// DatabaseConnections over the last daysBack days, sampled every period
// seconds.
//
// CloudWatch failures are non-fatal: affected instances keep
// CPUDatapoints == 0, which rules treat as "no data available".
func (d *DefaultCostCollector) RDSInstances(ctx context.Context, cfg aws.Config, daysBack int, period int32) ([]models.AWSRDSInstance, error) {
	clients := d.factory(cfg)
	paginator := rdssvc.NewDescribeDBInstancesPaginator(clients.RDS, &rdssvc.DescribeDBInstancesInput{})

	var instances []models.AWSRDSInstance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("RDSInstances: %w", common.Classify("rds", "DescribeDBInstances", cfg.Region, err))
		}
		for _, db := range page.DBInstances {
			instances = append(instances, toRDSInstance(db, cfg.Region))
		}
	}

	start, end := d.metricWindow(daysBack)
	for i := range instances {
		if instances[i].Status != "available" {
			continue
		}
		q := metricQuery{
			namespace: "AWS/RDS",
			dimension: "DBInstanceIdentifier",
			value:     instances[i].DBInstanceID,
			period:    period,
		}
		q.metric = "CPUUtilization"
		instances[i].AvgCPUPercent, instances[i].CPUDatapoints = fetchMetricAverage(ctx, clients.CW, q, start, end)
		q.metric = "DatabaseConnections"
		instances[i].AvgConnections, _ = fetchMetricAverage(ctx, clients.CW, q, start, end)
	}

	return instances, nil
}

// toRDSInstance converts an SDK DBInstance to the internal model.
func toRDSInstance(db rdstypes.DBInstance, region string) models.AWSRDSInstance {
	return models.AWSRDSInstance{
		DBInstanceID:    aws.ToString(db.DBInstanceIdentifier),
		Region:          region,
		DBInstanceClass: aws.ToString(db.DBInstanceClass),
		Engine:          aws.ToString(db.Engine),
		MultiAZ:         aws.ToBool(db.MultiAZ),
		Status:          aws.ToString(db.DBInstanceStatus),
		Tags:            tagsFromRDS(db.TagList),
	}
}

// tagsFromRDS converts RDS SDK tags to a plain string map.
func tagsFromRDS(tags []rdstypes.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			m[*t.Key] = *t.Value
		}
	}
	return m
}
