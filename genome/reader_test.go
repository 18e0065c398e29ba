package genome

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestParseFasta(t *testing.T) {
	input := "ignored\n>chr1 first\nACGT\n\nTTAA\n>chr2\r\nGG\r\n"

	seqs, err := ParseFasta(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseFasta failed: %v", err)
	}

	if len(seqs) != 2 {
		t.Fatalf("got %d records, want 2", len(seqs))
	}
	if seqs[0].ID != "chr1 first" || seqs[0].Bases != "ACGTTTAA" {
		t.Errorf("record 0 = %+v", seqs[0])
	}
	if seqs[1].ID != "chr2" || seqs[1].Bases != "GG" {
		t.Errorf("record 1 = %+v", seqs[1])
	}
}

func TestParseFastaEmpty(t *testing.T) {
	seqs, err := ParseFasta(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseFasta failed: %v", err)
	}
	if len(seqs) != 0 {
		t.Errorf("got %d records, want 0", len(seqs))
	}
}

func TestParseFastq(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantReads   int
		wantSkipped int
		wantErrText string
	}{
		{
			name:      "valid",
			input:     "@r1\nACGT\n+\nIIII\n@r2\nGG\n+r2\nII\n",
			wantReads: 2,
		},
		{
			name:        "missing at",
			input:       "r1\n@r2\nAC\n+\nII\n",
			wantReads:   1,
			wantSkipped: 1,
			wantErrText: "expected '@'",
		},
		{
			name:        "length mismatch",
			input:       "@r1\nACGT\n+\nII\n",
			wantSkipped: 1,
			wantErrText: "does not match",
		},
		{
			name:        "missing separator",
			input:       "@r1\nACGT\n-\nIIII\n",
			wantSkipped: 2,
			wantErrText: "missing '+'",
		},
		{
			name:        "truncated",
			input:       "@r1\nACGT\n+\n",
			wantSkipped: 1,
			wantErrText: "missing quality",
		},
		{
			name:        "empty sequence",
			input:       "@r1\n\n",
			wantSkipped: 1,
			wantErrText: "missing sequence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reads, skipped, err := ParseFastq(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseFastq failed: %v", err)
			}

			if len(reads) != tt.wantReads {
				t.Errorf("reads = %d, want %d", len(reads), tt.wantReads)
			}
			if len(skipped) != tt.wantSkipped {
				t.Fatalf("skipped = %v, want %d", skipped, tt.wantSkipped)
			}
			if tt.wantErrText != "" &&
				!strings.Contains(skipped[0].Error(), tt.wantErrText) {
				t.Errorf("skip reason = %q, want containing %q",
					skipped[0], tt.wantErrText)
			}
		})
	}
}

func TestParseFastqKeepsQuality(t *testing.T) {
	reads, _, err := ParseFastq(strings.NewReader("@r1 desc\nACGT\n+\n!#%I\n"))
	if err != nil {
		t.Fatalf("ParseFastq failed: %v", err)
	}

	if len(reads) != 1 {
		t.Fatalf("got %d reads, want 1", len(reads))
	}

	r := reads[0]
	if r.ID != "r1 desc" || r.Bases != "ACGT" || r.Quality != "!#%I" {
		t.Errorf("read = %+v", r)
	}
	if !r.HasQuality() {
		t.Error("HasQuality = false")
	}
	if r.String() != "@r1 desc\nACGT\n+\n!#%I" {
		t.Errorf("String() = %q", r.String())
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"a.fa", ">x\nAC\n", FASTA},
		{"b.fq", "@x\nAC\n+\nII\n", FASTQ},
		{"c.txt", "hello\n", Unknown},
		{"d.empty", "", Unknown},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := DetectFormat(path)
		if err != nil {
			t.Fatalf("DetectFormat(%s) failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}

	if _, err := DetectFormat(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadFastaFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(">g\nACGTACGT\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	seqs, err := ReadFastaFile(path)
	if err != nil {
		t.Fatalf("ReadFastaFile failed: %v", err)
	}
	if len(seqs) != 1 || seqs[0].Bases != "ACGTACGT" {
		t.Errorf("seqs = %+v", seqs)
	}

	format, err := DetectFormat(path)
	if err != nil || format != FASTA {
		t.Errorf("DetectFormat = %s, %v; want fasta", format, err)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.fq", "a.fa"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	want := []string{filepath.Join(dir, "a.fa"), filepath.Join(dir, "b.fq")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"ACGT", "ACGT"},
		{"AAAC", "GTTT"},
		{"acgN", "Ncgt"},
		{"RYKM", "KMRY"},
		{"A-X", "NNT"},
		{"AGCTTAGCTA", "TAGCTAAGCT"},
	}

	for _, tt := range tests {
		if got := ReverseComplement(tt.in); got != tt.want {
			t.Errorf("ReverseComplement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
