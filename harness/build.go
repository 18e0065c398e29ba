package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// BinaryName is the file name of the harness executable.
const BinaryName = "kmer-harness"

// ResolveBinary returns the expected harness binary path inside binDir.
func ResolveBinary(binDir string) string {
	name := BinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	return filepath.Join(binDir, name)
}

// Build compiles ./cmd/kmer-harness of the module rooted at moduleDir
// into binDir and returns the binary path.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	moduleDir string,
	binDir string,
) (string, error) {
	binPath, err := filepath.Abs(ResolveBinary(binDir))
	if err != nil {
		return "", fmt.Errorf("resolve binary path: %w", err)
	}

	logger.InfoContext(ctx, "building harness",
		slog.String("module_dir", moduleDir),
		slog.String("binary", binPath),
	)

	cmd := exec.CommandContext(
		ctx, "go", "build", "-o", binPath, "./cmd/"+BinaryName,
	)
	cmd.Dir = moduleDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build %s: %w", BinaryName, err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build %s: binary not found at %s", BinaryName, binPath,
		)
	}

	logger.InfoContext(ctx, "harness built",
		slog.String("binary", binPath),
	)

	return binPath, nil
}
