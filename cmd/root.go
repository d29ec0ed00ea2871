package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasnim.dev/vpc-planner/internal/config"
	"tasnim.dev/vpc-planner/internal/logging"
	"tasnim.dev/vpc-planner/internal/report"
	"tasnim.dev/vpc-planner/internal/utils"
)

// Options holds the persistent flags shared by every subcommand.
type Options struct {
	ConfigPath string
	Profile    string
	Region     string
	LogLevel   string
	LogFormat  string
	Output     string
}

// NewRootCmd builds the vpc-planner command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "vpc-planner",
		Short:         "Plan and build AWS VPC subnet layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (YAML, or .tfvars/.hcl)")
	flags.StringVarP(&opts.Profile, "profile", "p", "", "AWS profile to use")
	flags.StringVarP(&opts.Region, "region", "r", "", "AWS region to use")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFormat, "log-format", "", "log format (console, json)")
	flags.StringVarP(&opts.Output, "output", "o", "table", "output format (table, json, yaml)")

	rootCmd.AddCommand(NewPlanCmd(opts))
	rootCmd.AddCommand(NewValidateCmd(opts))
	rootCmd.AddCommand(NewSplitCmd(opts))
	rootCmd.AddCommand(NewCheckCmd(opts))
	rootCmd.AddCommand(NewInspectCmd(opts))
	rootCmd.AddCommand(NewApplyCmd(opts))

	return rootCmd
}

// env is what a subcommand needs after flags and the config file are merged.
type env struct {
	cfg     *config.Config
	profile string
	region  string
	log     *zap.Logger
	out     *report.Renderer
}

func (o *Options) setup(cmd *cobra.Command) (*env, error) {
	format, err := report.ParseFormat(o.Output)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	lc := logging.DefaultConfig()
	if cfg.Logging.Level != "" {
		lc.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		lc.Format = cfg.Logging.Format
	}
	if o.LogLevel != "" {
		lc.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		lc.Format = o.LogFormat
	}
	log, err := logging.NewWithWriter(lc, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	profile, region := cfg.Merge(o.Profile, o.Region)
	out := cmd.OutOrStdout()
	return &env{
		cfg:     cfg,
		profile: profile,
		region:  region,
		log:     log.With(zap.String("command", cmd.Name())),
		out:     report.New(out, format, utils.IsTerminal(out)),
	}, nil
}
