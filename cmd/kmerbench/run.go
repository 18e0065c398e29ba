package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kmerbench/kmerbench/dataset"
	"github.com/kmerbench/kmerbench/harness"
	"github.com/kmerbench/kmerbench/store"
	"github.com/kmerbench/kmerbench/workload"
)

type runConfig struct {
	genomes        []string
	syntheticSizes []int
	reads          int
	readLength     int
	errorRate      float64
	seed           int64
	k              int
	searches       int
	harnessBin     string
	moduleDir      string
	skipBuild      bool
	timeout        time.Duration
	outputJSON     bool
	saveData       string
	dbPath         string
	label          string
	plotDir        string
	dpi            int
}

// genomeInput is one genome to benchmark.
type genomeInput struct {
	name      string
	reference string
	reads     string
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark the mapper on one or more genomes",
		Long: `Run the kmer-harness once per genome, each in its own process, and
collect real time, IndexGenome, MapReads and SearchKmer timings and peak
memory. Genomes are given with --genome or generated with --synthetic-sizes.`,
		Example: `  kmerbench run --genome "E. coli (4Mb)=ecoli.fasta:reads/ecoli"
  kmerbench run --synthetic-sizes 100000,1000000,10000000 --plot-dir charts`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&cfg.genomes, "genome", nil,
		`Genome to benchmark as "name=reference.fasta:reads" (repeatable)`)
	flags.IntSliceVar(&cfg.syntheticSizes, "synthetic-sizes", nil,
		"Generate synthetic genomes of these sizes in bp")
	flags.IntVar(&cfg.reads, "reads", 10000,
		"Reads per synthetic genome")
	flags.IntVar(&cfg.readLength, "read-length", 100,
		"Synthetic read length")
	flags.Float64Var(&cfg.errorRate, "error-rate", 0.01,
		"Per-base substitution rate of synthetic reads")
	flags.Int64Var(&cfg.seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.IntVarP(&cfg.k, "k", "k", 15,
		"k-mer length")
	flags.IntVar(&cfg.searches, "searches", 1000,
		"k-mer lookups averaged for SearchKmer")
	flags.StringVar(&cfg.harnessBin, "harness-bin", "bin",
		"Directory holding the kmer-harness binary")
	flags.StringVar(&cfg.moduleDir, "module-dir", ".",
		"Module root used to build the harness")
	flags.BoolVar(&cfg.skipBuild, "skip-build", false,
		"Skip building the harness binary")
	flags.DurationVar(&cfg.timeout, "timeout", 30*time.Minute,
		"Timeout per genome")
	flags.BoolVar(&cfg.outputJSON, "json", false,
		"Output results as JSON instead of table")
	flags.StringVar(&cfg.saveData, "save-data", "",
		"Write the measurements to this JSON file")
	flags.StringVar(&cfg.dbPath, "db", "",
		"Store the run in this sqlite database")
	flags.StringVar(&cfg.label, "label", "",
		"Label for the stored run")
	flags.StringVar(&cfg.plotDir, "plot-dir", "",
		"Render charts of the results into this directory")
	flags.IntVar(&cfg.dpi, "dpi", 300,
		"Chart resolution in dots per inch")

	return cmd
}

func parseGenome(s string) (genomeInput, error) {
	name, paths, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return genomeInput{}, fmt.Errorf("genome %q: want name=reference:reads", s)
	}

	i := strings.LastIndex(paths, ":")
	if i <= 0 || i == len(paths)-1 {
		return genomeInput{}, fmt.Errorf("genome %q: want name=reference:reads", s)
	}

	return genomeInput{
		name:      name,
		reference: paths[:i],
		reads:     paths[i+1:],
	}, nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cmd *cobra.Command,
	cfg runConfig,
) error {
	if len(cfg.genomes) == 0 && len(cfg.syntheticSizes) == 0 {
		return fmt.Errorf(
			"at least one genome must be given via --genome or --synthetic-sizes",
		)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("genomes", len(cfg.genomes)+len(cfg.syntheticSizes)),
		slog.Int("k", cfg.k),
		slog.Int("searches", cfg.searches),
	)

	// Step 1: Collect genomes, generating synthetic ones.
	inputs := make([]genomeInput, 0, len(cfg.genomes)+len(cfg.syntheticSizes))

	for _, g := range cfg.genomes {
		in, err := parseGenome(g)
		if err != nil {
			return err
		}

		inputs = append(inputs, in)
	}

	if len(cfg.syntheticSizes) > 0 {
		dir, err := os.MkdirTemp("", "kmerbench-workload-*")
		if err != nil {
			return fmt.Errorf("create workload dir: %w", err)
		}
		defer os.RemoveAll(dir)

		synthetic, err := generateWorkloads(ctx, logger, dir, cfg)
		if err != nil {
			return fmt.Errorf("generate workload: %w", err)
		}

		inputs = append(inputs, synthetic...)
	}

	// Step 2: Build the harness binary (unless --skip-build).
	binPath := harness.ResolveBinary(cfg.harnessBin)

	if !cfg.skipBuild {
		var err error

		binPath, err = harness.Build(ctx, logger, cfg.moduleDir, cfg.harnessBin)
		if err != nil {
			return fmt.Errorf("build harness: %w", err)
		}
	}

	// Step 3: Run each genome sequentially so memory peaks stay isolated.
	runner := harness.NewRunner(binPath, logger)
	results := make([]harness.Result, 0, len(inputs))

	for _, in := range inputs {
		result, err := runner.Run(ctx, harness.RunConfig{
			Genome:    in.name,
			Label:     in.name,
			Reference: in.reference,
			Reads:     in.reads,
			K:         cfg.k,
			Searches:  cfg.searches,
			Timeout:   cfg.timeout,
		})
		if err != nil {
			return fmt.Errorf("run %s: %w", in.name, err)
		}

		logger.InfoContext(ctx, "genome benchmarked",
			slog.String("genome", in.name),
			slog.Int("reads", result.Reads),
			slog.Int("mapped", result.MappedReads),
			slog.String("peak_memory", humanize.Bytes(max(result.PeakMemoryBytes, result.MaxRSSBytes))),
		)

		results = append(results, *result)
	}

	ds := harness.ToDataset(results)

	// Step 4: Generate report.
	if err := writeReport(cmd.OutOrStdout(), ds, cfg.outputJSON); err != nil {
		return err
	}

	// Step 5: Persist and plot.
	if cfg.saveData != "" {
		if err := ds.SaveFile(cfg.saveData); err != nil {
			return err
		}

		logger.InfoContext(ctx, "measurements saved",
			slog.String("path", cfg.saveData),
		)
	}

	if cfg.dbPath != "" {
		if err := saveRun(ctx, logger, cfg, ds); err != nil {
			return err
		}
	}

	if cfg.plotDir != "" {
		if err := renderCharts(ctx, logger, ds, cfg.plotDir, cfg.dpi); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

func saveRun(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
	ds dataset.Dataset,
) error {
	st, err := store.Open(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	id, err := st.SaveRun(ctx, store.Run{
		Label:   cfg.label,
		K:       cfg.k,
		Dataset: ds,
	})
	if err != nil {
		return fmt.Errorf("store run: %w", err)
	}

	logger.InfoContext(ctx, "run stored",
		slog.String("db", cfg.dbPath),
		slog.String("run_id", id),
	)

	return nil
}

func generateWorkloads(
	ctx context.Context,
	logger *slog.Logger,
	dir string,
	cfg runConfig,
) ([]genomeInput, error) {
	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	inputs := make([]genomeInput, 0, len(cfg.syntheticSizes))

	for i, size := range cfg.syntheticSizes {
		name := "synthetic-" + humanize.SIWithDigits(float64(size), 0, "bp")
		name = strings.ReplaceAll(name, " ", "")

		readsDir := filepath.Join(dir, fmt.Sprintf("reads-%d", i))
		if err := os.MkdirAll(readsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create reads dir: %w", err)
		}

		refPath := filepath.Join(dir, fmt.Sprintf("ref-%d.fasta", i))
		readsPath := filepath.Join(readsDir, "reads.fastq")

		gen := workload.NewGenerator(workload.Config{
			Name:       name,
			GenomeSize: size,
			NumReads:   cfg.reads,
			ReadLength: min(cfg.readLength, size),
			ErrorRate:  cfg.errorRate,
			Seed:       seed + int64(i),
		})

		summary, err := writeWorkload(gen, refPath, readsPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		logger.InfoContext(ctx, "workload generated",
			slog.String("genome", name),
			slog.String("reference", refPath),
			slog.Int("bases", summary.ReferenceBases),
			slog.Int("reads", summary.Reads),
			slog.Int("mutated_bases", summary.MutatedBases),
		)

		inputs = append(inputs, genomeInput{
			name:      name,
			reference: refPath,
			reads:     readsDir,
		})
	}

	return inputs, nil
}

func writeWorkload(
	gen *workload.Generator,
	refPath, readsPath string,
) (workload.Summary, error) {
	refFile, err := os.Create(refPath)
	if err != nil {
		return workload.Summary{}, fmt.Errorf("create reference: %w", err)
	}
	defer refFile.Close()

	readsFile, err := os.Create(readsPath)
	if err != nil {
		return workload.Summary{}, fmt.Errorf("create reads: %w", err)
	}
	defer readsFile.Close()

	summary, err := gen.Generate(refFile, readsFile)
	if err != nil {
		return summary, err
	}

	if err := refFile.Close(); err != nil {
		return summary, fmt.Errorf("close reference: %w", err)
	}
	if err := readsFile.Close(); err != nil {
		return summary, fmt.Errorf("close reads: %w", err)
	}

	return summary, nil
}
