// Package cli wires the xrplmm commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/config"
)

var (
	// Global flags
	configFile string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xrplmm",
	Short: "goXRPLmm - unattended XRPL liquidity agent",
	Long: `goXRPLmm keeps two-sided liquidity on the XRP Ledger DEX. It derives a
rate per supported currency from an on-ledger reference account and an
external price feed, reconciles the agent's resting offers against that rate
on a fixed cadence, and rewards counterparties that open new trust lines.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}

// loadRuntime builds the logger and loads the effective configuration for a
// command invocation.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	if debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := logCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, log, nil
}
