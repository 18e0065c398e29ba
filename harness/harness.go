package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// RunConfig holds parameters for a single harness execution.
type RunConfig struct {
	Genome    string
	Label     string
	Reference string
	Reads     string
	K         int
	Searches  int
	Timeout   time.Duration
}

// Runner launches the harness binary, one process per genome.
type Runner struct {
	BinaryPath string
	Logger     *slog.Logger
}

// NewRunner creates a Runner for the harness at binaryPath.
func NewRunner(binaryPath string, logger *slog.Logger) *Runner {
	return &Runner{
		BinaryPath: binaryPath,
		Logger:     logger,
	}
}

// Run executes the harness for one genome and returns parsed results.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	args := []string{
		"--genome", cfg.Genome,
		"--ref", cfg.Reference,
		"--reads", cfg.Reads,
	}
	if cfg.K > 0 {
		args = append(args, "--k", strconv.Itoa(cfg.K))
	}
	if cfg.Searches > 0 {
		args = append(args, "--searches", strconv.Itoa(cfg.Searches))
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := r.Logger.With(slog.String("genome", cfg.Genome))
	logger.Info("starting harness",
		slog.String("binary", r.BinaryPath),
		slog.String("reference", cfg.Reference),
		slog.String("reads", cfg.Reads),
	)

	wallStart := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"harness %s failed: %w\nstderr: %s",
			cfg.Genome, err, stderr.String(),
		)
	}

	wallElapsed := time.Since(wallStart)

	logger.Info("harness finished",
		slog.Duration("wall_time", wallElapsed),
	)

	result, err := parseResult(cfg.Genome, &stdout)
	if err != nil {
		return nil, fmt.Errorf(
			"parse %s output: %w\nstdout: %s",
			cfg.Genome, err, stdout.String(),
		)
	}

	result.Label = cfg.Label
	result.WallMs = wallElapsed.Milliseconds()
	result.MaxRSSBytes = maxRSS(cmd.ProcessState)

	if result.MaxRSSBytes == 0 {
		logger.Warn("max RSS unavailable, using harness-reported memory")
	}

	return result, nil
}

func parseResult(genome string, r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if result.Genome == "" {
		result.Genome = genome
	}

	return &result, nil
}
