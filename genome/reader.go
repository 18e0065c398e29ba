package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Format identifies a sequence file format.
type Format int

const (
	Unknown Format = iota
	FASTA
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "fasta"
	case FASTQ:
		return "fastq"
	default:
		return "unknown"
	}
}

const maxLine = 64 << 20

// Open opens path for reading, decompressing it when the name ends in .gz.
func Open(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return fh, nil
	}

	gr, err := gzip.NewReader(fh)
	if err != nil {
		fh.Close()

		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}

	return struct {
		io.Reader
		io.Closer
	}{Reader: gr, Closer: fh}, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), maxLine)

	return sc
}

// ParseFasta reads every record from r. Blank lines are skipped and
// sequence lines before the first header are ignored.
func ParseFasta(r io.Reader) ([]Sequence, error) {
	var (
		out   []Sequence
		id    string
		bases strings.Builder
		open  bool
	)

	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		if line[0] == '>' {
			if open {
				out = append(out, Sequence{ID: id, Bases: bases.String()})
				bases.Reset()
			}

			id = line[1:]
			open = true

			continue
		}

		if open {
			bases.WriteString(line)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}

	if open {
		out = append(out, Sequence{ID: id, Bases: bases.String()})
	}

	return out, nil
}

// ParseFastq reads four-line FASTQ records from r. Malformed entries are
// skipped and described in the returned slice of skip errors; the final
// error is set only when reading fails.
func ParseFastq(r io.Reader) ([]Sequence, []error, error) {
	var (
		out     []Sequence
		skipped []error
	)

	sc := newScanner(r)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}

		return strings.TrimRight(sc.Text(), "\r"), true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		if line[0] != '@' {
			skipped = append(skipped, fmt.Errorf("malformed entry: expected '@', got %q", line))

			continue
		}

		id := line[1:]

		bases, ok := next()
		if !ok || bases == "" {
			skipped = append(skipped, fmt.Errorf("%s: missing sequence", id))

			continue
		}

		sep, ok := next()
		if !ok || sep == "" || sep[0] != '+' {
			skipped = append(skipped, fmt.Errorf("%s: missing '+' separator", id))

			continue
		}

		qual, ok := next()
		if !ok || qual == "" {
			skipped = append(skipped, fmt.Errorf("%s: missing quality string", id))

			continue
		}

		if len(bases) != len(qual) {
			skipped = append(skipped, fmt.Errorf(
				"%s: quality length %d does not match sequence length %d",
				id, len(qual), len(bases),
			))

			continue
		}

		out = append(out, Sequence{ID: id, Bases: bases, Quality: qual})
	}

	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read fastq: %w", err)
	}

	return out, skipped, nil
}

// ReadFastaFile parses the FASTA file at path.
func ReadFastaFile(path string) ([]Sequence, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	seqs, err := ParseFasta(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return seqs, nil
}

// ReadFastqFile parses the FASTQ file at path.
func ReadFastqFile(path string) ([]Sequence, []error, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	reads, skipped, err := ParseFastq(rc)
	if err != nil {
		return nil, skipped, fmt.Errorf("%s: %w", path, err)
	}

	return reads, skipped, nil
}

// DetectFormat inspects the first line of path.
func DetectFormat(path string) (Format, error) {
	rc, err := Open(path)
	if err != nil {
		return Unknown, err
	}
	defer rc.Close()

	line, err := bufio.NewReader(rc).ReadString('\n')
	if err != nil && err != io.EOF {
		return Unknown, fmt.Errorf("read %s: %w", path, err)
	}

	if line == "" {
		return Unknown, nil
	}

	switch line[0] {
	case '>':
		return FASTA, nil
	case '@':
		return FASTQ, nil
	default:
		return Unknown, nil
	}
}

// ListFiles returns the regular files directly inside dir in lexical order.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		files = append(files, filepath.Join(dir, e.Name()))
	}

	return files, nil
}
