package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove all containers created by realmenv",
		Long: `prune removes every container realmenv created, running or stopped. This
includes containers kept by reuse and shared dev services other processes may
still be using.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.prune(cmd.Context())
		},
	}
}

func (a *app) prune(ctx context.Context) (err error) {
	orch, err := a.orchestrator()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := orch.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	removed, err := orch.Prune(ctx)
	for _, name := range removed {
		fmt.Fprintf(a.stdout, "removed %s\n", name)
	}
	return err
}
