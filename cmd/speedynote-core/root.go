package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/speedynote/speedynote-core/internal/canvasconfig"
	"github.com/speedynote/speedynote-core/internal/canvaslog"
)

var (
	cfgFile       string
	logLevel      string
	logFormat     string
	renderDPIFlag int
)

// appConfig is the configuration every subcommand reads from:
// canvasconfig.Load's env/file/defaults, overlaid with whichever
// persistent flags the user actually set.
var appConfig *canvasconfig.Config

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "speedynote-core",
	Short: "Headless driver for the SpeedyNote canvas engine",
	Long: `speedynote-core drives the canvas engine without a GUI: create and
migrate note bundles, render a page to a flat PNG, and export annotated
PDF pages, all from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.speedynote.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log output format (console, json)")
	rootCmd.PersistentFlags().IntVar(&renderDPIFlag, "render-dpi", 0, "PDF render resolution override")
}

// initConfig loads canvasconfig.Config (env vars > config file >
// defaults), overlays any persistent flag the user actually set so CLI
// flags win over everything else as Config's own doc comment promises,
// and starts canvaslog from the merged result before any subcommand
// runs.
func initConfig() {
	cfg, err := canvasconfig.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "speedynote-core: config: %v\n", err)
		cfg = &canvasconfig.Config{
			BundleDir:        ".",
			RenderDPI:        192,
			CacheCapacity:    6,
			PrefetchDebounce: time.Second,
			LogLevel:         "info",
			LogFormat:        "console",
		}
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("render-dpi") {
		cfg.RenderDPI = renderDPIFlag
	}

	appConfig = cfg

	if err := canvaslog.Init(&canvaslog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "speedynote-core: logger: %v\n", err)
		return
	}
	canvaslog.Get().Debugw("configuration loaded", "bundle_dir", cfg.BundleDir, "render_dpi", cfg.RenderDPI)
}
