package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

func bindInput(f *pflag.FlagSet, in *efficiency.Input) {
	f.Float64Var(&in.FarmArea, "farm-area", 0, "farm area (required, > 0)")
	f.Float64Var(&in.FertilizerUsed, "fertilizer", 0, "fertilizer used")
	f.Float64Var(&in.PesticideUsed, "pesticide", 0, "pesticide used")
	f.Float64Var(&in.WaterUsage, "water", 0, "water usage")
	f.Float64Var(&in.Yield, "yield", 0, "yield")
}

func newScoreCmd(rf *rootFlags) *cobra.Command {
	var in efficiency.Input
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one farm input",
		Example: "  agrictl score --farm-area 10 --fertilizer 500 --pesticide 50 --water 50000 --yield 2\n" +
			"  agrictl score --farm-area 10 --water 50000 --yield 2 -o json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			out := rf.engine().Evaluate(in)
			if out.Degraded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", out.Reason)
			}
			return render(cmd.OutOrStdout(), rf.output, out.Result, func(p *printer) { p.result(out.Result) })
		},
	}
	bindInput(cmd.Flags(), &in)
	_ = cmd.MarkFlagRequired("farm-area")
	return cmd
}

func newTrendCmd(rf *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Analyze the efficiency trend of a chronological list of inputs",
		Long:  "trend reads a YAML list of inputs (farm_area, fertilizer_used,\npesticide_used, water_usage, yield), oldest first, scores each one\nand classifies the series.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := readHistory(file)
			if err != nil {
				return err
			}
			t := rf.engine().Trends(history)
			return render(cmd.OutOrStdout(), rf.output, t, func(p *printer) { p.trend(t) })
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML history file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readHistory(path string) ([]efficiency.Input, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []efficiency.Input
	if err := yaml.Unmarshal(b, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return history, nil
}

func newBenchmarksCmd(rf *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "benchmarks",
		Short: "Print the effective benchmark set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				rf.benchmarks = file
			}
			b := rf.engine().Benchmarks()
			view := benchmarksView{Source: b.Source(), Benchmarks: b}
			return render(cmd.OutOrStdout(), rf.output, view, func(p *printer) { p.benchmarks(b) })
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "benchmark dataset CSV")
	return cmd
}

type benchmarksView struct {
	Source     string                `json:"source"`
	Benchmarks efficiency.Benchmarks `json:"benchmarks"`
}

func newCompareCmd(rf *rootFlags) *cobra.Command {
	var in efficiency.Input
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare an input's raw metrics with the benchmarks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			c := rf.engine().Compare(in)
			return render(cmd.OutOrStdout(), rf.output, c, func(p *printer) { p.comparison(c) })
		},
	}
	bindInput(cmd.Flags(), &in)
	_ = cmd.MarkFlagRequired("farm-area")
	return cmd
}
