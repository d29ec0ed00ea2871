package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/multierr"

	"tasnim.dev/vpc-planner/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "error:", e)
		}
		stop()
		os.Exit(1)
	}
}
