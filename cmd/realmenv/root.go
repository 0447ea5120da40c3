package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/giantswarm/realmenv"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	// exitFatal reports a service that was started but failed to become
	// usable: a startup timeout, an exited container or rejected provisioning.
	exitFatal = 2
)

// envPrefix namespaces the environment variables bound to flags, so that
// --log-level reads REALMENV_LOG_LEVEL.
const envPrefix = "REALMENV"

// Flag keys shared by several commands.
const (
	keyLogLevel = "log-level"
	keyConfig   = "config"
	keyMode     = "mode"
	keyNetwork  = "network"
	keyOutput   = "output"
)

// app carries what the commands share. Tests replace newOrchestrator to run
// against an in-memory runtime.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	newOrchestrator func(opts ...realmenv.Option) (realmenv.Orchestrator, error)
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{
		v:               v,
		stdout:          stdout,
		stderr:          stderr,
		newOrchestrator: realmenv.NewOrchestrator,
	}
}

func execute(args []string) int {
	a := newApp(os.Stdout, os.Stderr)
	cmd := a.rootCmd()
	cmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	if realmenv.IsFatal(err) {
		return exitFatal
	}
	return exitError
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realmenv",
		Short: "Run a lorisgate auth server for local development",
		Long: `realmenv starts a lorisgate auth server in a Docker container, waits for it
to become healthy and provisions the realms, roles, users and clients described
in a YAML file. In dev mode a shared server is discovered and reused across
processes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			return a.setupLogging()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetVersionTemplate(`{{printf "realmenv version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.String(keyLogLevel, "info", "log level: debug, info, warn or error")
	flags.StringP(keyConfig, "f", "", "service configuration file; built-in defaults when empty")
	flags.String(keyMode, string(realmenv.DefaultLaunchMode), "launch mode: dev or test")
	flags.String(keyNetwork, "", "shared Docker network to attach the container to")

	cmd.AddCommand(
		a.upCmd(),
		a.watchCmd(),
		a.tokenCmd(),
		a.pruneCmd(),
		a.versionCmd(),
	)
	return cmd
}

func (a *app) bindFlags(flags *pflag.FlagSet) error {
	if err := a.v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

func (a *app) setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString(keyLogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString(keyLogLevel))
	}
	h := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
	realmenv.SetLogger(nil)
	return nil
}

// loadConfig reads the service configuration named by --config.
func (a *app) loadConfig() (realmenv.ServiceConfig, error) {
	path := a.v.GetString(keyConfig)
	if path == "" {
		return realmenv.DefaultConfig(), nil
	}
	return realmenv.LoadConfig(path)
}

// orchestrator builds an orchestrator from the global flags.
func (a *app) orchestrator() (realmenv.Orchestrator, error) {
	mode, err := realmenv.ParseLaunchMode(a.v.GetString(keyMode))
	if err != nil {
		return nil, err
	}
	opts := []realmenv.Option{realmenv.WithLaunchMode(mode)}
	if network := a.v.GetString(keyNetwork); network != "" {
		opts = append(opts, realmenv.WithSharedNetwork(network))
	}
	return a.newOrchestrator(opts...)
}

// ensure loads the configuration and brings the service up. On error the
// orchestrator is already closed.
func (a *app) ensure(ctx context.Context) (realmenv.Orchestrator, realmenv.Service, realmenv.ServiceConfig, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}
	orch, err := a.orchestrator()
	if err != nil {
		return nil, nil, cfg, err
	}
	svc, err := orch.Ensure(ctx, cfg)
	if err != nil {
		if closeErr := orch.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, nil, cfg, err
	}
	return orch, svc, cfg, nil
}
