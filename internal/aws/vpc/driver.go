package vpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"tasnim.dev/vpc-planner/internal/plan"
)

// ProvisionAPI is the subset of the EC2 API needed to build a network plan.
type ProvisionAPI interface {
	CreateVpc(ctx context.Context, params *awsec2.CreateVpcInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateVpcOutput, error)
	CreateInternetGateway(ctx context.Context, params *awsec2.CreateInternetGatewayInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateInternetGatewayOutput, error)
	AttachInternetGateway(ctx context.Context, params *awsec2.AttachInternetGatewayInput, optFns ...func(*awsec2.Options)) (*awsec2.AttachInternetGatewayOutput, error)
	AllocateAddress(ctx context.Context, params *awsec2.AllocateAddressInput, optFns ...func(*awsec2.Options)) (*awsec2.AllocateAddressOutput, error)
	CreateRouteTable(ctx context.Context, params *awsec2.CreateRouteTableInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateRouteTableOutput, error)
	CreateRoute(ctx context.Context, params *awsec2.CreateRouteInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateRouteOutput, error)
	CreateNatGateway(ctx context.Context, params *awsec2.CreateNatGatewayInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateNatGatewayOutput, error)
	DescribeNatGateways(ctx context.Context, params *awsec2.DescribeNatGatewaysInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeNatGatewaysOutput, error)
	CreateSubnet(ctx context.Context, params *awsec2.CreateSubnetInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateSubnetOutput, error)
	ModifySubnetAttribute(ctx context.Context, params *awsec2.ModifySubnetAttributeInput, optFns ...func(*awsec2.Options)) (*awsec2.ModifySubnetAttributeOutput, error)
	AssociateRouteTable(ctx context.Context, params *awsec2.AssociateRouteTableInput, optFns ...func(*awsec2.Options)) (*awsec2.AssociateRouteTableOutput, error)
	CreateSecurityGroup(ctx context.Context, params *awsec2.CreateSecurityGroupInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateSecurityGroupOutput, error)
}

type DriverConfig struct {
	// NamePrefix is prepended to node names in Name tags.
	NamePrefix string
	// Zones maps AZ indices to zone names. Subnets whose index has no
	// zone are left to EC2 to place.
	Zones  []string
	DryRun bool
	// NATWaitTimeout bounds the wait for each NAT gateway to become
	// available. Zero skips the wait.
	NATWaitTimeout time.Duration
}

// Driver creates plan resources through the EC2 API.
type Driver struct {
	api ProvisionAPI
	cfg DriverConfig
	log *zap.Logger
}

var _ plan.Driver = (*Driver)(nil)

func NewDriver(api ProvisionAPI, cfg DriverConfig, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{api: api, cfg: cfg, log: log}
}

func (d *Driver) Create(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	log := d.log.With(zap.String("node", node.Name), zap.String("kind", string(node.Kind)))
	if d.cfg.DryRun {
		log.Info("dry run, skipping create", zap.Any("attributes", node.Attributes), zap.Any("depends_on", deps))
		return "dryrun-" + node.Name, nil
	}

	var (
		id  string
		err error
	)
	switch node.Kind {
	case plan.KindVPC:
		id, err = d.createVPC(ctx, node)
	case plan.KindGateway:
		id, err = d.createGateway(ctx, node, deps)
	case plan.KindEIP:
		id, err = d.allocateEIP(ctx, node)
	case plan.KindRouteTable:
		id, err = d.createRouteTable(ctx, node, deps)
	case plan.KindRoute:
		id, err = d.createRoute(ctx, node, deps)
	case plan.KindNAT:
		id, err = d.createNAT(ctx, node, deps)
	case plan.KindSubnet:
		id, err = d.createSubnet(ctx, node, deps)
	case plan.KindAssociation:
		id, err = d.associate(ctx, node, deps)
	case plan.KindSecurityGroup:
		id, err = d.createSecurityGroup(ctx, node, deps)
	default:
		return "", fmt.Errorf("unsupported resource kind %q", node.Kind)
	}
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			log.Error("EC2 request failed", zap.String("code", apiErr.ErrorCode()), zap.String("message", apiErr.ErrorMessage()))
		}
		return "", err
	}

	log.Info("created", zap.String("id", id))
	return id, nil
}

func (d *Driver) tags(rt types.ResourceType, node *plan.ResourceNode) []types.TagSpecification {
	return []types.TagSpecification{{
		ResourceType: rt,
		Tags: []types.Tag{
			{Key: aws.String("Name"), Value: aws.String(d.name(node))},
		},
	}}
}

func (d *Driver) name(node *plan.ResourceNode) string {
	if d.cfg.NamePrefix == "" {
		return node.Name
	}
	return d.cfg.NamePrefix + "-" + node.Name
}

// ref returns the ID created for the dependency named by attribute key.
func ref(node *plan.ResourceNode, deps map[string]string, key string) (string, error) {
	dep := node.Attributes[key]
	id := deps[dep]
	if id == "" {
		return "", fmt.Errorf("no ID for %s dependency %q", key, dep)
	}
	return id, nil
}

func (d *Driver) createVPC(ctx context.Context, node *plan.ResourceNode) (string, error) {
	out, err := d.api.CreateVpc(ctx, &awsec2.CreateVpcInput{
		CidrBlock:         aws.String(node.Attributes[plan.AttrCIDRBlock]),
		TagSpecifications: d.tags(types.ResourceTypeVpc, node),
	})
	if err != nil {
		return "", fmt.Errorf("CreateVpc: %w", err)
	}
	return aws.ToString(out.Vpc.VpcId), nil
}

func (d *Driver) createGateway(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	vpcID, err := ref(node, deps, plan.AttrVPC)
	if err != nil {
		return "", err
	}
	out, err := d.api.CreateInternetGateway(ctx, &awsec2.CreateInternetGatewayInput{
		TagSpecifications: d.tags(types.ResourceTypeInternetGateway, node),
	})
	if err != nil {
		return "", fmt.Errorf("CreateInternetGateway: %w", err)
	}
	igwID := aws.ToString(out.InternetGateway.InternetGatewayId)

	if _, err := d.api.AttachInternetGateway(ctx, &awsec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
		VpcId:             aws.String(vpcID),
	}); err != nil {
		return "", fmt.Errorf("AttachInternetGateway: %w", err)
	}
	return igwID, nil
}

func (d *Driver) allocateEIP(ctx context.Context, node *plan.ResourceNode) (string, error) {
	out, err := d.api.AllocateAddress(ctx, &awsec2.AllocateAddressInput{
		Domain:            types.DomainTypeVpc,
		TagSpecifications: d.tags(types.ResourceTypeElasticIp, node),
	})
	if err != nil {
		return "", fmt.Errorf("AllocateAddress: %w", err)
	}
	return aws.ToString(out.AllocationId), nil
}

func (d *Driver) createRouteTable(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	vpcID, err := ref(node, deps, plan.AttrVPC)
	if err != nil {
		return "", err
	}
	out, err := d.api.CreateRouteTable(ctx, &awsec2.CreateRouteTableInput{
		VpcId:             aws.String(vpcID),
		TagSpecifications: d.tags(types.ResourceTypeRouteTable, node),
	})
	if err != nil {
		return "", fmt.Errorf("CreateRouteTable: %w", err)
	}
	return aws.ToString(out.RouteTable.RouteTableId), nil
}

// createRoute returns "<route table ID>_<destination>", which is how routes
// are addressed since EC2 gives them no ID of their own.
func (d *Driver) createRoute(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	rtbID, err := ref(node, deps, plan.AttrRouteTable)
	if err != nil {
		return "", err
	}
	targetID, err := ref(node, deps, plan.AttrTarget)
	if err != nil {
		return "", err
	}
	dest := node.Attributes[plan.AttrDestination]

	in := &awsec2.CreateRouteInput{
		RouteTableId:         aws.String(rtbID),
		DestinationCidrBlock: aws.String(dest),
	}
	if node.Attributes[plan.AttrTarget] == plan.NodeGateway {
		in.GatewayId = aws.String(targetID)
	} else {
		in.NatGatewayId = aws.String(targetID)
	}
	if _, err := d.api.CreateRoute(ctx, in); err != nil {
		return "", fmt.Errorf("CreateRoute: %w", err)
	}
	return rtbID + "_" + dest, nil
}

func (d *Driver) createNAT(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	subnetID, err := ref(node, deps, plan.AttrSubnet)
	if err != nil {
		return "", err
	}
	allocID, err := ref(node, deps, plan.AttrEIP)
	if err != nil {
		return "", err
	}
	out, err := d.api.CreateNatGateway(ctx, &awsec2.CreateNatGatewayInput{
		SubnetId:          aws.String(subnetID),
		AllocationId:      aws.String(allocID),
		ConnectivityType:  types.ConnectivityTypePublic,
		TagSpecifications: d.tags(types.ResourceTypeNatgateway, node),
	})
	if err != nil {
		return "", fmt.Errorf("CreateNatGateway: %w", err)
	}
	natID := aws.ToString(out.NatGateway.NatGatewayId)

	if d.cfg.NATWaitTimeout > 0 {
		d.log.Info("waiting for NAT gateway", zap.String("id", natID), zap.Duration("timeout", d.cfg.NATWaitTimeout))
		waiter := awsec2.NewNatGatewayAvailableWaiter(d.api)
		if err := waiter.Wait(ctx, &awsec2.DescribeNatGatewaysInput{
			NatGatewayIds: []string{natID},
		}, d.cfg.NATWaitTimeout); err != nil {
			return "", fmt.Errorf("waiting for NAT gateway %s: %w", natID, err)
		}
	}
	return natID, nil
}

func (d *Driver) createSubnet(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	vpcID, err := ref(node, deps, plan.AttrVPC)
	if err != nil {
		return "", err
	}
	in := &awsec2.CreateSubnetInput{
		VpcId:             aws.String(vpcID),
		CidrBlock:         aws.String(node.Attributes[plan.AttrCIDRBlock]),
		TagSpecifications: d.tags(types.ResourceTypeSubnet, node),
	}
	if az := d.zone(node); az != "" {
		in.AvailabilityZone = aws.String(az)
	}
	out, err := d.api.CreateSubnet(ctx, in)
	if err != nil {
		return "", fmt.Errorf("CreateSubnet: %w", err)
	}
	subnetID := aws.ToString(out.Subnet.SubnetId)

	if node.Attributes[plan.AttrRole] == string(plan.RolePublic) {
		if _, err := d.api.ModifySubnetAttribute(ctx, &awsec2.ModifySubnetAttributeInput{
			SubnetId:            aws.String(subnetID),
			MapPublicIpOnLaunch: &types.AttributeBooleanValue{Value: aws.Bool(true)},
		}); err != nil {
			return "", fmt.Errorf("ModifySubnetAttribute: %w", err)
		}
	}
	return subnetID, nil
}

func (d *Driver) zone(node *plan.ResourceNode) string {
	i, err := strconv.Atoi(node.Attributes[plan.AttrAZIndex])
	if err != nil || i < 0 || i >= len(d.cfg.Zones) {
		return ""
	}
	return d.cfg.Zones[i]
}

func (d *Driver) associate(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	subnetID, err := ref(node, deps, plan.AttrSubnet)
	if err != nil {
		return "", err
	}
	rtbID, err := ref(node, deps, plan.AttrRouteTable)
	if err != nil {
		return "", err
	}
	out, err := d.api.AssociateRouteTable(ctx, &awsec2.AssociateRouteTableInput{
		SubnetId:     aws.String(subnetID),
		RouteTableId: aws.String(rtbID),
	})
	if err != nil {
		return "", fmt.Errorf("AssociateRouteTable: %w", err)
	}
	return aws.ToString(out.AssociationId), nil
}

func (d *Driver) createSecurityGroup(ctx context.Context, node *plan.ResourceNode, deps map[string]string) (string, error) {
	vpcID, err := ref(node, deps, plan.AttrVPC)
	if err != nil {
		return "", err
	}
	out, err := d.api.CreateSecurityGroup(ctx, &awsec2.CreateSecurityGroupInput{
		GroupName:         aws.String(d.name(node)),
		Description:       aws.String(node.Attributes[plan.AttrDescription]),
		VpcId:             aws.String(vpcID),
		TagSpecifications: d.tags(types.ResourceTypeSecurityGroup, node),
	})
	if err != nil {
		return "", fmt.Errorf("CreateSecurityGroup: %w", err)
	}
	return aws.ToString(out.GroupId), nil
}
