package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awsclient "tasnim.dev/vpc-planner/internal/aws"
	"tasnim.dev/vpc-planner/internal/aws/vpc"
	"tasnim.dev/vpc-planner/internal/plan"
)

// ErrOverlap is returned by check when the planned VPC block collides with
// an existing VPC.
var ErrOverlap = errors.New("planned VPC block overlaps existing VPCs")

func (e *env) client(cmd *cobra.Command) (*awsclient.ServiceClient, error) {
	client, err := awsclient.NewServiceClient(cmd.Context(), e.profile, e.region)
	if err != nil {
		return nil, fmt.Errorf("initializing AWS client: %w", err)
	}
	e.log.Info("using AWS account",
		zap.String("account", client.AccountID(cmd.Context())),
		zap.String("region", client.Region),
		zap.String("profile", e.profile),
	)
	return client, nil
}

func NewCheckCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare the planned VPC block with existing VPCs in the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			p, err := e.compile()
			if err != nil {
				return err
			}
			client, err := e.client(cmd)
			if err != nil {
				return err
			}

			overlaps, err := client.VPC.FindOverlaps(cmd.Context(), p.VPCBlock)
			if err != nil {
				return err
			}
			if err := e.out.Overlaps(client.Region, p.VPCBlock, overlaps); err != nil {
				return err
			}
			if len(overlaps) > 0 {
				return ErrOverlap
			}
			return nil
		},
	}
}

func NewInspectCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <vpc-id>",
		Short: "Audit the subnets and free address space of an existing VPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			client, err := e.client(cmd)
			if err != nil {
				return err
			}
			audit, err := client.VPC.Audit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.out.Audit(audit)
		},
	}
}

func NewApplyCmd(opts *Options) *cobra.Command {
	var (
		dryRun    bool
		natWait   time.Duration
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the planned VPC, subnets, gateways and routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			p, err := e.compile()
			if err != nil {
				return err
			}
			g := plan.BuildGraph(p)
			order, err := g.TopologicalOrder()
			if err != nil {
				return err
			}

			cfg := vpc.DriverConfig{
				NamePrefix:     e.cfg.Prefix(),
				Zones:          p.AvailabilityZones,
				DryRun:         dryRun,
				NATWaitTimeout: natWait,
			}

			var api vpc.ProvisionAPI
			if !dryRun {
				client, err := e.client(cmd)
				if err != nil {
					return err
				}
				if !skipCheck {
					overlaps, err := client.VPC.FindOverlaps(cmd.Context(), p.VPCBlock)
					if err != nil {
						return err
					}
					if len(overlaps) > 0 {
						if err := e.out.Overlaps(client.Region, p.VPCBlock, overlaps); err != nil {
							return err
						}
						return ErrOverlap
					}
				}
				if len(cfg.Zones) == 0 {
					if cfg.Zones, err = client.EC2.PickZones(cmd.Context(), p.AZCount); err != nil {
						return err
					}
				}
				api = client.Provision
			}

			e.log.Info("applying plan",
				zap.Int("resources", len(order)),
				zap.Strings("zones", cfg.Zones),
				zap.Bool("dry_run", dryRun),
			)
			ids, execErr := plan.Execute(cmd.Context(), g, vpc.NewDriver(api, cfg, e.log))
			if err := e.out.Created(order, ids); err != nil {
				return err
			}
			return execErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the calls without creating anything")
	cmd.Flags().DurationVar(&natWait, "nat-wait", 10*time.Minute, "how long to wait for each NAT gateway (0 to skip)")
	cmd.Flags().BoolVar(&skipCheck, "skip-overlap-check", false, "create the VPC even if its block overlaps an existing VPC")

	return cmd
}
