package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/droidloop/droidloop/internal/config"
	"github.com/droidloop/droidloop/internal/history"
	"github.com/droidloop/droidloop/internal/logger"
	mcpserver "github.com/droidloop/droidloop/internal/mcp"
	"github.com/droidloop/droidloop/pkg/adb"
	"github.com/droidloop/droidloop/pkg/dispatch"
	"github.com/droidloop/droidloop/pkg/player"
	"github.com/droidloop/droidloop/pkg/scenario"

	mcpgo "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "droidloop",
	Short: "Replay recorded Android automation scenarios",
	Long:  "droidloop replays recorded UI interaction scenarios against a live Android device, with retries, timing fidelity, screenshot evidence, and structured reports.",
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	replayCmd.Flags().StringP("device", "d", "", "device serial (default: device recorded in the scenario)")
	replayCmd.Flags().Float64("speed", 0, "speed multiplier; >1 replays faster, <1 slower")
	replayCmd.Flags().Int("retries", 0, "dispatch attempts per action")
	replayCmd.Flags().Bool("stop-on-error", false, "halt at the first failed action")
	replayCmd.Flags().Bool("screenshots", false, "capture before/after screenshots per action")
	replayCmd.Flags().StringP("report", "o", "", "write the report JSON to this path")

	reportsCmd.Flags().Int("limit", 20, "maximum number of stored replays to list")

	rootCmd.AddCommand(replayCmd, validateCmd, toolsCmd, schemaCmd, reportsCmd, mcpCmd, versionCmd)
}

// loadApp builds the shared config and logger for a command invocation.
func loadApp(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	return cfg, log, nil
}

// --- replay ---

var replayCmd = &cobra.Command{
	Use:   "replay [scenario.json]",
	Short: "Replay a recorded scenario against a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadApp(cmd)
	if err != nil {
		return err
	}

	execCfg := cfg.ExecutionConfig()
	if speed, _ := cmd.Flags().GetFloat64("speed"); speed > 0 {
		execCfg.SpeedMultiplier = speed
	}
	if retries, _ := cmd.Flags().GetInt("retries"); retries > 0 {
		execCfg.RetryAttempts = retries
	}
	if cmd.Flags().Changed("stop-on-error") {
		execCfg.StopOnError, _ = cmd.Flags().GetBool("stop-on-error")
	}
	if cmd.Flags().Changed("screenshots") {
		execCfg.CaptureScreenshots, _ = cmd.Flags().GetBool("screenshots")
	}

	deviceID, _ := cmd.Flags().GetString("device")
	au := adb.New(cfg.Adb.Binary, log)

	p, err := player.New(au, deviceID, execCfg, log)
	if err != nil {
		return fmt.Errorf("replay configuration: %w", err)
	}

	summary := p.Replay(args[0])
	printSummary(summary.Success, summary.Execution.TotalActions,
		summary.Execution.SuccessfulActions, summary.Execution.FailedActions,
		summary.Execution.SuccessRate, summary.Execution.DurationSeconds,
		summary.Errors)

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := summary.SaveToFile(reportPath); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", reportPath)
	}

	if cfg.History.Enable {
		store, err := history.Open(cfg.History.Path, log)
		if err != nil {
			log.Warn("history store unavailable", "error", err)
		} else {
			defer store.Close()
			if err := store.Save(context.Background(), uuid.NewString(), summary); err != nil {
				log.Warn("could not persist replay record", "error", err)
			}
		}
	}

	if !summary.Success {
		os.Exit(1)
	}
	return nil
}

func printSummary(success bool, total, successful, failed int, rate, durationSeconds float64, errs []string) {
	status := color.GreenString("PASSED")
	if !success {
		status = color.RedString("FAILED")
	}
	duration := time.Duration(durationSeconds * float64(time.Second))
	fmt.Printf("\n%s  %d/%d actions succeeded (%.2f%%) in %s\n",
		status, successful, total, rate, duration.Round(time.Millisecond))
	if failed > 0 {
		color.Red("  %d action(s) failed", failed)
	}
	for _, e := range errs {
		color.Red("  error: %s", e)
	}
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [scenario.json]",
	Short: "Validate a scenario file against the scenario schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issues := scenario.ValidateFile(args[0])
		if len(issues) == 0 {
			color.Green("✓ %s is valid", args[0])
			return nil
		}
		for _, issue := range issues {
			color.Red("✗ %s", issue.Error())
		}
		return fmt.Errorf("%d validation issue(s)", len(issues))
	},
}

// --- tools ---

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the replayable tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadApp(cmd)
		if err != nil {
			return err
		}
		au := adb.New(cfg.Adb.Binary, log)
		d := dispatch.NewDispatcher(au, log)

		category := ""
		for _, e := range dispatch.CatalogEntries() {
			if e.Category != category {
				category = e.Category
				fmt.Printf("\n%s:\n", color.CyanString(category))
			}
			mark := " "
			if d.IsSupported(e.Name) {
				mark = color.GreenString("*")
			}
			fmt.Printf("  %s %-22s %s\n", mark, e.Name, d.Signature(e.Name))
		}
		fmt.Printf("\n%s = supported by the adb automator\n", color.GreenString("*"))
		return nil
	},
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Export the scenario JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := scenario.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- reports ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List stored replay reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadApp(cmd)
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.History.Path, log)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := store.List(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no stored replays")
			return nil
		}
		for _, rec := range records {
			status := color.GreenString("passed")
			if !rec.Success {
				status = color.RedString("failed")
			}
			fmt.Printf("%s  %s  %s  %d actions (%d failed)  %s\n",
				rec.ID[:8], status, rec.SessionName,
				rec.TotalActions, rec.FailedActions,
				humanize.Time(rec.CreatedAt))
		}
		return nil
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve droidloop tools over the Model Context Protocol (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadApp(cmd)
		if err != nil {
			return err
		}
		s := mcpserver.NewServer(version, mcpserver.Deps{
			Automator: adb.New(cfg.Adb.Binary, log),
			Defaults:  cfg.ExecutionConfig(),
			Log:       log,
		})
		return mcpgo.ServeStdio(s)
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("droidloop %s (%s)\n", version, commit)
	},
}
