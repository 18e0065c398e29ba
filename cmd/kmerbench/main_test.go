package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmerbench/kmerbench/chart"
	"github.com/kmerbench/kmerbench/dataset"
	"github.com/kmerbench/kmerbench/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := newRootCmd(logger)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestPlotBuiltin(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "plot", "--out-dir", dir, "--dpi", "30"); err != nil {
		t.Fatalf("plot failed: %v", err)
	}

	for _, name := range []string{
		chart.ExecutionTimeFile, chart.PeakMemoryFile, chart.ScalingFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestReportFromDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := dataset.Builtin()[:2].SaveFile(path); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "report", "--data", path)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if !strings.Contains(out, "E. coli (4Mb)") {
		t.Errorf("expected E. coli in report:\n%s", out)
	}
	if strings.Contains(out, "D. rerio") {
		t.Errorf("report includes a genome not in the data file:\n%s", out)
	}
}

func TestReportJSONBuiltin(t *testing.T) {
	out, err := execute(t, "report", "--json")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	ds, err := dataset.Load(strings.NewReader(out))
	if err != nil {
		t.Fatalf("report JSON does not load: %v", err)
	}
	if len(ds) != 6 {
		t.Errorf("genomes = %d, want 6", len(ds))
	}
}

func TestReportFromStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	id, err := st.SaveRun(context.Background(), store.Run{
		Label: "nightly", K: 15, Dataset: dataset.Builtin()[2:4],
	})
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	out, err := execute(t, "report", "--db", dbPath, "--run", id)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "C. elegans") || strings.Contains(out, "E. coli") {
		t.Errorf("unexpected report:\n%s", out)
	}

	out, err = execute(t, "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "nightly") {
		t.Errorf("runs listing missing run:\n%s", out)
	}
}

func TestRunsDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	keep, err := st.SaveRun(context.Background(), store.Run{
		Label: "keep", Dataset: dataset.Builtin()[:1],
	})
	if err != nil {
		t.Fatal(err)
	}
	drop, err := st.SaveRun(context.Background(), store.Run{
		Label: "drop", Dataset: dataset.Builtin()[:1],
	})
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	out, err := execute(t, "runs", "delete", "--db", dbPath, drop)
	if err != nil {
		t.Fatalf("runs delete failed: %v", err)
	}
	if out != "deleted "+drop+"\n" {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, keep) || strings.Contains(out, drop) {
		t.Errorf("runs listing after delete:\n%s", out)
	}

	if _, err := execute(t, "runs", "delete", "--db", dbPath, drop); err == nil {
		t.Error("expected error deleting a missing run")
	}
	if _, err := execute(t, "runs", "delete", "--db", dbPath); err == nil {
		t.Error("expected error without a run id")
	}
}

func TestSourceFlagErrors(t *testing.T) {
	tests := [][]string{
		{"report", "--db", "x.db"},
		{"report", "--data", "a.json", "--db", "x.db"},
		{"report", "--data", filepath.Join(t.TempDir(), "missing.json")},
	}

	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.fasta")
	readsDir := filepath.Join(dir, "reads")

	if err := os.WriteFile(ref, []byte(">chr\nACGTTGCAACGTT\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(readsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	reads := "@r1\nACGTTA\n+\nIIIIII\n@r2\nGGGGGG\n+\nIIIIII\n"
	if err := os.WriteFile(filepath.Join(readsDir, "r.fq"), []byte(reads), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "map", ref, readsDir, "-k", "5")
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}

	want := "Mapping results:\n" +
		"Read r1 mapped at positions: 0 8 \n" +
		"Read r2 mapped at positions: Not found\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestMapCommandArgs(t *testing.T) {
	if _, err := execute(t, "map", "only-one"); err == nil {
		t.Error("expected error for missing reads directory")
	}
}

func TestRunRequiresGenomes(t *testing.T) {
	if _, err := execute(t, "run", "--skip-build"); err == nil {
		t.Error("expected error without genomes")
	}
}

func TestParseGenome(t *testing.T) {
	tests := []struct {
		input   string
		want    genomeInput
		wantErr bool
	}{
		{
			input: "E. coli (4Mb)=data/ecoli.fa:data/reads",
			want:  genomeInput{name: "E. coli (4Mb)", reference: "data/ecoli.fa", reads: "data/reads"},
		},
		{input: "noequals", wantErr: true},
		{input: "=ref.fa:reads", wantErr: true},
		{input: "x=ref.fa", wantErr: true},
		{input: "x=ref.fa:", wantErr: true},
		{input: "x=:reads", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseGenome(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGenome(%q): expected error", tt.input)
			}

			continue
		}

		if err != nil {
			t.Errorf("parseGenome(%q) failed: %v", tt.input, err)

			continue
		}
		if got != tt.want {
			t.Errorf("parseGenome(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}
