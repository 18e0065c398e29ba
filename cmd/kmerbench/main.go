// Package main provides the CLI entry point for kmerbench, a benchmarking
// and charting tool for a k-mer based read mapper.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kmerbench/kmerbench/chart"
	"github.com/kmerbench/kmerbench/dataset"
	"github.com/kmerbench/kmerbench/report"
	"github.com/kmerbench/kmerbench/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "kmerbench",
		Short: "Benchmark and chart a k-mer read mapper across genomes",
		Long: `Kmerbench runs a k-mer index based read mapper over reference genomes,
measures indexing, mapping and lookup times along with peak memory, and
renders the results as charts and comparison tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPlotCmd(logger),
		newReportCmd(logger),
		newRunCmd(logger),
		newMapCmd(logger),
		newRunsCmd(logger),
	)

	return root
}

// sourceConfig selects where measurements come from. With no fields set
// the built-in dataset is used.
type sourceConfig struct {
	dataPath string
	dbPath   string
	runID    string
}

func addSourceFlags(cmd *cobra.Command, src *sourceConfig) {
	flags := cmd.Flags()
	flags.StringVar(&src.dataPath, "data", "",
		"JSON dataset file (default: built-in measurements)")
	flags.StringVar(&src.dbPath, "db", "",
		"sqlite database of stored runs")
	flags.StringVar(&src.runID, "run", "",
		"Run ID to load from --db")
}

func loadDataset(ctx context.Context, src sourceConfig) (dataset.Dataset, error) {
	switch {
	case src.dataPath != "" && src.dbPath != "":
		return nil, fmt.Errorf("--data and --db are mutually exclusive")

	case src.dataPath != "":
		return dataset.LoadFile(src.dataPath)

	case src.dbPath != "":
		if src.runID == "" {
			return nil, fmt.Errorf("--run is required with --db")
		}

		st, err := store.Open(src.dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		run, err := st.LoadRun(ctx, src.runID)
		if err != nil {
			return nil, err
		}

		return run.Dataset, nil

	default:
		return dataset.Builtin(), nil
	}
}

func newPlotCmd(logger *slog.Logger) *cobra.Command {
	var (
		src    sourceConfig
		outDir string
		dpi    int
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render execution time, peak memory and scaling charts",
		Long: `Render three PNG charts: real execution time per genome, peak memory
per genome (both log-scale bar charts) and MapReads/IndexGenome/SearchKmer
time against genome size (log-log).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := loadDataset(cmd.Context(), src)
			if err != nil {
				return err
			}

			return renderCharts(cmd.Context(), logger, ds, outDir, dpi)
		},
	}

	addSourceFlags(cmd, &src)

	flags := cmd.Flags()
	flags.StringVar(&outDir, "out-dir", ".",
		"Directory to write the charts to")
	flags.IntVar(&dpi, "dpi", 300,
		"Output resolution in dots per inch")

	return cmd
}

func renderCharts(
	ctx context.Context,
	logger *slog.Logger,
	ds dataset.Dataset,
	outDir string,
	dpi int,
) error {
	opts := chart.DefaultOptions()
	opts.Dir = outDir
	opts.DPI = dpi

	paths, err := chart.Render(ctx, ds, opts)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}

	for _, p := range paths {
		logger.InfoContext(ctx, "chart written",
			slog.String("path", p),
			slog.Int("genomes", len(ds)),
			slog.Int("dpi", opts.DPI),
		)
	}

	return nil
}

func newReportCmd(_ *slog.Logger) *cobra.Command {
	var (
		src        sourceConfig
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a comparison table of the measurements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := loadDataset(cmd.Context(), src)
			if err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), ds, outputJSON)
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().BoolVar(&outputJSON, "json", false,
		"Output measurements as JSON instead of a table")

	return cmd
}

func writeReport(w io.Writer, ds dataset.Dataset, outputJSON bool) error {
	if outputJSON {
		if err := report.GenerateJSON(w, ds); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}

		return nil
	}

	if err := report.Generate(w, ds); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	return nil
}

func newRunsCmd(_ *slog.Logger) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List benchmark runs stored in a database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "| Run | Label | k | Genomes | Created |")
			fmt.Fprintln(w, "|-----|-------|---|---------|---------|")

			for _, r := range runs {
				fmt.Fprintf(w, "| %s | %s | %d | %d | %s |\n",
					r.ID, r.Label, r.K, r.Genomes, humanize.Time(r.CreatedAt))
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database of stored runs")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newRunsDeleteCmd(&dbPath))

	return cmd
}

func newRunsDeleteCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete stored runs and their measurements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(*dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			for _, id := range args {
				if err := st.DeleteRun(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete run: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}

			return nil
		},
	}
}
