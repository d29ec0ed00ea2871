package ec2

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const standardZoneType = "availability-zone"

type EC2API interface {
	DescribeAvailabilityZones(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error)
}

type Client struct {
	api EC2API
}

func NewClient(api EC2API) *Client {
	return &Client{api: api}
}

// ListAvailabilityZones returns the available standard zones of the region,
// sorted by name. Local and wavelength zones are skipped.
func (c *Client) ListAvailabilityZones(ctx context.Context) ([]AvailabilityZone, error) {
	out, err := c.api.DescribeAvailabilityZones(ctx, &awsec2.DescribeAvailabilityZonesInput{
		Filters: []types.Filter{
			{Name: aws.String("state"), Values: []string{string(types.AvailabilityZoneStateAvailable)}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeAvailabilityZones: %w", err)
	}

	var zones []AvailabilityZone
	for _, z := range out.AvailabilityZones {
		zoneType := aws.ToString(z.ZoneType)
		if zoneType != "" && zoneType != standardZoneType {
			continue
		}
		zones = append(zones, AvailabilityZone{
			Name:  aws.ToString(z.ZoneName),
			ID:    aws.ToString(z.ZoneId),
			State: string(z.State),
			Type:  zoneType,
		})
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

// PickZones returns the names of the first n available zones.
func (c *Client) PickZones(ctx context.Context, n int) ([]string, error) {
	zones, err := c.ListAvailabilityZones(ctx)
	if err != nil {
		return nil, err
	}
	if len(zones) < n {
		return nil, fmt.Errorf("plan needs %d availability zones but the region has %d", n, len(zones))
	}

	names := make([]string, n)
	for i := range names {
		names[i] = zones[i].Name
	}
	return names, nil
}
