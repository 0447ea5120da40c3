package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/giantswarm/realmenv"
)

// defaultDebounce is how long the config file must stay quiet before it is
// reloaded. Editors often write a file in several steps.
const defaultDebounce = 500 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the auth server in sync with the configuration file",
		Long: `watch ensures the auth server and then re-ensures it whenever the
configuration file changes. An unchanged configuration keeps the running
service; a changed one restarts it. Interrupt to stop and close the service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := a.v.GetString(keyOutput)
			if err := validateOutput(format); err != nil {
				return err
			}
			if a.v.GetString(keyConfig) == "" {
				return errors.New("watch requires --config")
			}
			return a.watch(cmd.Context(), format, debounce)
		},
	}
	cmd.Flags().StringP(keyOutput, "o", outputTable, "output format: table, env or json")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a changed file is reloaded")
	return cmd
}

func (a *app) watch(ctx context.Context, format string, debounce time.Duration) (err error) {
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

	current := svc.ID()
	return watchFile(ctx, a.v.GetString(keyConfig), debounce, func() {
		cfg, err := a.loadConfig()
		if err != nil {
			slog.Warn("Ignoring invalid configuration", "error", err)
			return
		}
		next, err := orch.Ensure(ctx, cfg)
		switch {
		case errors.Is(err, realmenv.ErrDisabled):
			slog.Info("Service disabled by configuration")
			current = ""
			return
		case err != nil:
			slog.Error("Failed to apply configuration", "error", err)
			current = ""
			return
		}
		if next.ID() == current {
			slog.Debug("Configuration unchanged")
			return
		}
		current = next.ID()
		if err := writeService(a.stdout, format, next); err != nil {
			slog.Warn("Failed to print properties", "error", err)
		}
	})
}

// watchFile calls onChange each time path settles after a change, until ctx
// is done. The parent directory is watched so that editors replacing the
// file by rename are seen too. onChange runs on the calling goroutine.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	slog.Info("Watching configuration", "path", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Configuration changed", "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", "error", err)

		case <-timer.C:
			onChange()
		}
	}
}
