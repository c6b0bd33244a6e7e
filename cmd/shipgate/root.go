package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shipgate/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "shipgate",
	Short: "Deterministic ship/no-ship gate for CI findings",
	Long: "Shipgate aggregates findings from analysis engines into a single,\nauditable gate decision: weighted points against per-mode thresholds,\nwith governed overrides and chronic-finding escalation.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(verdictCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(temporalCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
