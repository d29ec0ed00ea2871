package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasnim.dev/vpc-planner/internal/cidr"
	"tasnim.dev/vpc-planner/internal/plan"
)

// maxSplitCount bounds the split command's output; a /16 split into /28s.
const maxSplitCount = 1 << 12

// ErrInvalid is returned by validate after the violations have been printed.
var ErrInvalid = errors.New("configuration is invalid")

func (e *env) compile() (*plan.NetworkPlan, error) {
	nc := e.cfg.NetworkConfig(e.region)
	e.log.Debug("compiling plan",
		zap.String("vpc_block", nc.VPCBlock),
		zap.Strings("public_blocks", nc.PublicSubnetBlocks),
		zap.Strings("private_blocks", nc.PrivateSubnetBlocks),
		zap.Int("az_count", nc.AZCount),
		zap.Bool("nat_per_az", nc.NATPerAZ),
	)
	p, err := plan.Compile(nc)
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings {
		e.log.Warn(w)
	}
	return p, nil
}

func NewPlanCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the subnet layout and the resources needed to build it",
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
			return e.out.Plan(p, plan.BuildGraph(p))
		},
	}
}

func NewValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and list every violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			p, compileErr := plan.Compile(e.cfg.NetworkConfig(e.region))
			if err := e.out.Validation(p, compileErr); err != nil {
				return err
			}
			if compileErr != nil {
				return ErrInvalid
			}
			return nil
		},
	}
}

func NewSplitCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "split <cidr> <count>",
		Short: "Split a CIDR block into a power-of-two number of equal blocks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			parent, err := cidr.Parse(args[0])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}
			if count > maxSplitCount {
				return &cidr.InvalidInputError{
					Input:  args[1],
					Reason: fmt.Sprintf("count must be at most %d", maxSplitCount),
				}
			}
			blocks, err := cidr.EqualSplit(parent, count)
			if err != nil {
				return err
			}
			return e.out.Split(parent, blocks)
		},
	}
}
