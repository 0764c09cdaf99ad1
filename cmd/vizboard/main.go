package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/vizboard/internal/config"
	"github.com/TobiSchelling/vizboard/internal/pipeline"
	"github.com/TobiSchelling/vizboard/internal/server"
	"github.com/TobiSchelling/vizboard/internal/source"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vizboard",
	Short:   "Local analytics dashboard",
	Long:    "vizboard fetches a record set once, then filters, aggregates and pages it into dashboard charts.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			setupLogging("")
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		setupLogging(cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging installs a text slog handler at the configured level.
// --verbose always means DEBUG.
func setupLogging(level string) {
	lvl := parseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vizboard", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/vizboard/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point source.url or source.file at your data.")
		return nil
	},
}

// --- refresh command ---

var dryRun bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the record source and store a new snapshot: fetch -> persist -> summarize",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		src, err := source.New(cfg.SourceOptions())
		if err != nil {
			return err
		}
		pipe := pipeline.New(src, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(cmd.Context())
		}

		printSteps(result)
		if err := result.Err(); err != nil && !dryRun {
			return err
		}
		if !dryRun {
			fmt.Println("\nRefresh complete! Run 'vizboard serve' to view the dashboard.")
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		dash, closeCache, err := newDashboard(db)
		if err != nil {
			return err
		}
		defer closeCache()

		src, err := source.New(cfg.SourceOptions())
		if err != nil {
			return err
		}
		pipe := pipeline.New(src, db)
		refresh := func(ctx context.Context) (string, error) {
			result := pipe.Run(ctx)
			dash.Reload(result.Records)
			if err := result.Err(); err != nil {
				return "", err
			}
			return result.Steps[len(result.Steps)-1].Summary, nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if dash.Store().Len() == 0 {
			slog.Info("no stored snapshot, fetching records")
			if _, err := refresh(ctx); err != nil {
				slog.Warn("initial fetch failed, serving empty dashboard", "error", err)
			}
		}

		port := servePort
		if !cmd.Flags().Changed("port") {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, server.Options{
			Dashboard: dash,
			Notes:     cfg.Notes,
			Refresh:   refresh,
		}, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}
