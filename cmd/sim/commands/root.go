package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/cmd/sim/internal/config"
	"github.com/design-automation/mobius-sim-go/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	logFormat    string
	configDir    string
	outputFormat string
	outputFile   string
	jqExpr       string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sim",
	Short: "Build, inspect and archive SIM geometric models",
	Long: `sim - A command line interface for SIM geometric models.

A SIM model holds positions, points, polylines, polygons and collections,
with typed attributes attached to any of them. Model files are JSON (.sim,
.json) or msgpack (.simb, .msgpack), on local disk or in S3 (s3://bucket/key).

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/mobius-sim/
  Linux:   ~/.config/mobius-sim/
  Windows: %AppData%/mobius-sim/

Examples:
  # Build a model from a scene description
  sim build scene.yaml -w box.sim

  # Inspect it
  sim info box.sim
  sim ents box.sim posis --of pg0 -o table
  sim query box.sim pgon area '>' 10

  # Keep revisions in the local archive
  sim archive save box box.sim
  sim archive list box`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&configDir, "config-dir", "", "configuration directory (default: OS config dir)")
	pf.StringVarP(&outputFormat, "output", "o", "", "output format (yaml, json, table, raw)")
	pf.StringVar(&outputFile, "output-file", "", "write command output to a file")
	pf.StringVar(&jqExpr, "jq", "", "filter the result with a jq expression")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	globalConfig, configLoadErr = nil, nil
	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func setupLogger() error {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	switch logFormat {
	case "", "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// printResult filters result through --jq and writes it in the selected
// output format.
func printResult(result any) error {
	if jqExpr != "" {
		filtered, err := cli.Filter(result, jqExpr)
		if err != nil {
			return err
		}
		result = filtered
	}
	format, err := resolveFormat()
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
	})
}

// resolveFormat returns the -o flag, falling back to the configured default.
func resolveFormat() (cli.OutputFormat, error) {
	f := outputFormat
	if f == "" {
		if cfg, err := GetConfig(); err == nil {
			f = cfg.Output
		}
	}
	return cli.ParseOutputFormat(f)
}
