package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

func (a *app) upCmd() *cobra.Command {
	var hold bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the auth server and print its properties",
		Long: `up ensures the auth server is running with the configured realms and prints
the resulting properties. Without --hold the service is closed again on exit,
which leaves reusable containers running for the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := a.v.GetString(keyOutput)
			if err := validateOutput(format); err != nil {
				return err
			}
			return a.up(cmd.Context(), format, hold)
		},
	}
	cmd.Flags().StringP(keyOutput, "o", outputTable, "output format: table, env or json")
	cmd.Flags().BoolVar(&hold, "hold", false, "keep the service running until interrupted")
	return cmd
}

func (a *app) up(ctx context.Context, format string, hold bool) (err error) {
	orch, svc, _, err := a.ensure(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := orch.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := writeService(a.stdout, format, svc); err != nil {
		return err
	}
	if hold {
		slog.Info("Service running, interrupt to stop", "endpoint", svc.Endpoint())
		<-ctx.Done()
	}
	return nil
}
