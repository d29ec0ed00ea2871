package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	awsec2 "tasnim.dev/vpc-planner/internal/aws/ec2"
	awsvpc "tasnim.dev/vpc-planner/internal/aws/vpc"
)

// ServiceClient bundles the clients the planner needs for one region.
type ServiceClient struct {
	Region string
	EC2    *awsec2.Client
	VPC    *awsvpc.Client
	STS    STSAPI

	// Provision is the raw EC2 API used by the resource driver.
	Provision awsvpc.ProvisionAPI
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	ec2Client := ec2.NewFromConfig(cfg)

	return &ServiceClient{
		Region:    cfg.Region,
		EC2:       awsec2.NewClient(ec2Client),
		VPC:       awsvpc.NewClient(ec2Client),
		STS:       sts.NewFromConfig(cfg),
		Provision: ec2Client,
	}, nil
}

// AccountID returns the caller's account ID, or "" if it cannot be resolved.
func (c *ServiceClient) AccountID(ctx context.Context) string {
	return GetAccountID(ctx, c.STS)
}
