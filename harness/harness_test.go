package harness

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestParseResult(t *testing.T) {
	input := `{
		"genome": "ecoli",
		"reference_bases": 4600000,
		"reads": 1000,
		"mapped_reads": 990,
		"k": 15,
		"elapsed_ms": 6520,
		"index_time_ms": 1770,
		"map_time_ms": 1865,
		"search_kmer_ns": 8000,
		"peak_memory_bytes": 427000000
	}`

	result, err := parseResult("ecoli", bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Genome != "ecoli" {
		t.Errorf("genome = %q, want ecoli", result.Genome)
	}
	if result.ReferenceBases != 4600000 {
		t.Errorf("reference_bases = %d, want 4600000", result.ReferenceBases)
	}
	if result.MappedReads != 990 {
		t.Errorf("mapped_reads = %d, want 990", result.MappedReads)
	}
	if result.K != 15 {
		t.Errorf("k = %d, want 15", result.K)
	}
	if result.SearchKmerNs != 8000 {
		t.Errorf("search_kmer_ns = %v, want 8000", result.SearchKmerNs)
	}
	if result.PeakMemoryBytes != 427000000 {
		t.Errorf("peak_memory_bytes = %d, want 427000000",
			result.PeakMemoryBytes)
	}
}

func TestParseResultFillsGenome(t *testing.T) {
	result, err := parseResult("drerio", strings.NewReader(`{"reads": 1}`))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Genome != "drerio" {
		t.Errorf("genome = %q, want drerio", result.Genome)
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	_, err := parseResult("test", strings.NewReader(`not json at all`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestMeasurement(t *testing.T) {
	r := Result{
		Genome:          "ecoli",
		Label:           "E. coli (4Mb)",
		ReferenceBases:  4600000,
		ElapsedMs:       6000,
		WallMs:          6520,
		IndexTimeMs:     1770,
		MapTimeMs:       1865,
		SearchKmerNs:    8000,
		PeakMemoryBytes: 400_000_000,
		MaxRSSBytes:     427_000_000,
	}

	m := r.Measurement()

	if m.Label != "E. coli (4Mb)" {
		t.Errorf("label = %q", m.Label)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"size", m.SizeBP, 4.6e6},
		{"real", m.RealSeconds, 6.52},
		{"peak", m.PeakMemoryMB, 427},
		{"map", m.MapReadsSeconds, 1.865},
		{"index", m.IndexGenomeSeconds, 1.77},
		{"search", m.SearchKmerSeconds, 8e-6},
	}

	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestMeasurementFallbacks(t *testing.T) {
	m := Result{
		Genome:          "toy",
		ElapsedMs:       1500,
		PeakMemoryBytes: 2_000_000,
	}.Measurement()

	if m.Label != "toy" {
		t.Errorf("label = %q, want genome name", m.Label)
	}
	if !almostEqual(m.RealSeconds, 1.5) {
		t.Errorf("real = %v, want 1.5", m.RealSeconds)
	}
	if !almostEqual(m.PeakMemoryMB, 2) {
		t.Errorf("peak = %v, want 2", m.PeakMemoryMB)
	}
}

func TestToDatasetKeepsOrder(t *testing.T) {
	ds := ToDataset([]Result{{Genome: "a"}, {Genome: "b"}, {Genome: "c"}})

	if len(ds) != 3 || ds[0].Genome != "a" || ds[2].Genome != "c" {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestResolveBinary(t *testing.T) {
	got := ResolveBinary("bin")
	if filepath.Dir(got) != "bin" ||
		!strings.HasPrefix(filepath.Base(got), BinaryName) {
		t.Errorf("ResolveBinary = %q", got)
	}
}

func TestRunnerRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script harness")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-harness")
	script := "#!/bin/sh\n" +
		"echo '{\"reference_bases\": 100, \"reads\": 3, \"k\": 5, " +
		"\"elapsed_ms\": 1, \"peak_memory_bytes\": 1024}'\n"

	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := NewRunner(bin, logger)

	result, err := runner.Run(context.Background(), RunConfig{
		Genome:    "toy",
		Label:     "Toy (100bp)",
		Reference: "ref.fa",
		Reads:     "reads",
		K:         5,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Genome != "toy" || result.Label != "Toy (100bp)" {
		t.Errorf("result = %+v", result)
	}
	if result.ReferenceBases != 100 || result.Reads != 3 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunnerRunFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script harness")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "failing-harness")
	script := "#!/bin/sh\necho 'kmer-harness: boom' >&2\nexit 1\n"

	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewRunner(bin, logger).Run(context.Background(), RunConfig{
		Genome: "toy",
	})
	if err == nil {
		t.Fatal("expected error from failing harness")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not include stderr", err)
	}
}
