package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"playmap/internal/app"
	"playmap/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PlaymapApp. The caller must defer app.Close().
func newApp(ctx context.Context) (*app.PlaymapApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPlaymapApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against an activated app and suspends it afterwards, so
// every command loads the catalog first and flushes it before exit.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.PlaymapApp) error) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Activate(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	// Flush even when the command was interrupted.
	defer a.Suspend(context.WithoutCancel(ctx))

	return fn(ctx, a)
}

var rootCmd = &cobra.Command{
	Use:          "playmap",
	Short:        "Personal playground catalog",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.LogDir = defaults["log_dir"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Data Dir: %s\n", cfg.DataDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Data Dir:      %s\n", cfg.DataDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Log Level:     %s\n", cfg.LogLevel)
		fmt.Printf("Storage:       %s %s\n", cfg.Storage.Type, cfg.Storage.Dir)
		fmt.Printf("Photo Dir:     %s\n", cfg.Photos.PhotoDir)
		fmt.Printf("Thumbnail Dir: %s\n", cfg.Photos.ThumbnailDir)
		fmt.Printf("Auto-save:     %s\n", cfg.Store.AutoSaveDelay)
		fmt.Printf("Maintenance:   %s\n", cfg.Maintenance.Schedule)
		fmt.Printf("Vault:         %s (%s)\n", cfg.Backup.Vault.Name, cfg.Backup.Vault.Type)
		fmt.Printf("Encryption:    %s\n", cfg.Backup.Encryption.Type)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(photoCmd)
	rootCmd.AddCommand(maintainCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(resetCmd)
}
