package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cochaviz/kiln/internal/buildiso"
	"github.com/cochaviz/kiln/internal/config"
	"github.com/cochaviz/kiln/internal/hooks"
	"github.com/cochaviz/kiln/internal/httpd"
	"github.com/cochaviz/kiln/internal/inventory"
	"github.com/cochaviz/kiln/internal/logging"
	"github.com/cochaviz/kiln/internal/sync"
)

const (
	defaultLogLevel     = "info"
	defaultSettingsPath = "/etc/kiln/settings.yaml"
)

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	logLevel := defaultLogLevel
	settingsPath := defaultSettingsPath

	root := &cobra.Command{
		Use:           "kiln",
		Short:         "CLI for 'kiln': synchronize a network-boot tree from an object inventory",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&settingsPath, "settings", defaultSettingsPath, "Path to the settings file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		return nil
	}

	root.AddCommand(
		newSyncCommand(logger, &settingsPath),
		newListCommand(logger, &settingsPath),
		newBuildISOCommand(logger, &settingsPath),
		newServeCommand(logger, &settingsPath),
	)
	return root
}

func loadEnvironment(settingsPath string) (*config.Settings, *inventory.Store, error) {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := inventory.LoadDir(settings.StateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load inventory: %w", err)
	}
	return settings, store, nil
}

func newSyncCommand(logger *slog.Logger, settingsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the boot and web trees from the current object set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "sync")

			settings, store, err := loadEnvironment(*settingsPath)
			if err != nil {
				return err
			}

			service := &sync.Service{
				Settings: settings,
				Store:    store,
				Hooks:    &hooks.Runner{Dir: settings.TriggerDir, Logger: cmdLogger.With("component", "hooks")},
				Logger:   cmdLogger,
			}
			if err := service.Run(cmd.Context()); err != nil {
				cmdLogger.Error("sync failed", "error", err)
				return err
			}
			return nil
		},
	}
}

func newListCommand(logger *slog.Logger, settingsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded distros, profiles, and systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadEnvironment(*settingsPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, distro := range store.Distros() {
				fmt.Fprintf(out, "distro\t%s\t(%s, %s)\n", distro.Name, distro.Arch, distro.Breed)
			}
			for _, profile := range store.Profiles() {
				fmt.Fprintf(out, "profile\t%s\t(distro: %s)\n", profile.Name, profile.Distro)
			}
			for _, system := range store.Systems() {
				fmt.Fprintf(out, "system\t%s\t(profile: %s)\n", system.Name, system.Profile)
			}
			return nil
		},
	}
}

func newBuildISOCommand(logger *slog.Logger, settingsPath *string) *cobra.Command {
	var (
		outPath string
		label   string
	)

	cmd := &cobra.Command{
		Use:   "buildiso",
		Short: "Pack the synchronized boot tree into an ISO image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "buildiso")

			settings, err := config.Load(*settingsPath)
			if err != nil {
				return err
			}

			builder := &buildiso.Builder{Logger: cmdLogger}
			if err := builder.Build(settings.BootDir, outPath, label); err != nil {
				cmdLogger.Error("iso build failed", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "kiln.iso", "Path of the ISO image to write")
	cmd.Flags().StringVar(&label, "label", "KILN_BOOT", "Volume label for the image")

	return cmd
}

func newServeCommand(logger *slog.Logger, settingsPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web tree to install clients over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "serve")

			settings, err := config.Load(*settingsPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf(":%d", settings.HTTPPort)
			}

			server := &httpd.Server{Settings: settings, Logger: cmdLogger}
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the settings http_port)")

	return cmd
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
