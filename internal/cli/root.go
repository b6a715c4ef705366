// Package cli implementa agrictl, lo strumento offline per valutare
// l'efficienza di una farm senza i servizi in esecuzione.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	benchmarks string
	output     string
	logLevel   string
}

// NewRootCmd costruisce l'albero dei comandi; ogni chiamata ha flag propri.
func NewRootCmd() *cobra.Command {
	var rf rootFlags

	root := &cobra.Command{
		Use:   "agrictl",
		Short: "Offline farm efficiency scoring",
		Long:  "agrictl scores farm resource efficiency, analyzes score trends\nand compares farms with the benchmark set.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := logging.DefaultConfig()
			cfg.Level, cfg.Format, cfg.Output = rf.logLevel, "console", cmd.ErrOrStderr()
			logging.Init(cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&rf.benchmarks, "benchmarks", "b", "", "benchmark dataset CSV (defaults when empty or unreadable)")
	pf.StringVarP(&rf.output, "output", "o", formatText, "output format: text|json|yaml")
	pf.StringVar(&rf.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newScoreCmd(&rf),
		newTrendCmd(&rf),
		newBenchmarksCmd(&rf),
		newCompareCmd(&rf),
	)
	return root
}

func (rf *rootFlags) engine() *efficiency.Engine {
	if rf.benchmarks == "" {
		return efficiency.NewEngine(efficiency.DefaultBenchmarks())
	}
	return efficiency.NewEngine(efficiency.LoadBenchmarks(rf.benchmarks))
}
