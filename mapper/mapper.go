// Package mapper places sequencing reads on a reference genome by exact
// lookup of each read's leading k-mer.
package mapper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/kmerbench/kmerbench/genome"
	"github.com/kmerbench/kmerbench/kmer"
)

// Mapping is the placement of one read. Positions is empty when the
// read's leading k-mer does not occur in the reference.
type Mapping struct {
	ReadID    string
	Positions []int
}

// Found reports whether the read was placed.
func (m Mapping) Found() bool {
	return len(m.Positions) > 0
}

// Mapper holds a reference index and the reads to map against it.
type Mapper struct {
	k      int
	index  *kmer.Index
	refs   []string
	reads  []genome.Sequence
	logger *slog.Logger
}

// New creates a Mapper using k-mers of length k.
func New(k int, logger *slog.Logger) (*Mapper, error) {
	idx, err := kmer.New(k)
	if err != nil {
		return nil, err
	}

	return &Mapper{k: k, index: idx, logger: logger}, nil
}

// Index exposes the reference index.
func (m *Mapper) Index() *kmer.Index { return m.index }

// Reads returns the loaded reads.
func (m *Mapper) Reads() []genome.Sequence { return m.reads }

// LoadReference reads every record of a FASTA file, joins them into one
// sequence and indexes it. It returns the number of bases indexed.
func (m *Mapper) LoadReference(path string) (int, error) {
	seqs, err := genome.ReadFastaFile(path)
	if err != nil {
		return 0, fmt.Errorf("load reference: %w", err)
	}

	if len(seqs) == 0 {
		return 0, fmt.Errorf("load reference: no records in %s", path)
	}

	var b strings.Builder
	for _, s := range seqs {
		b.WriteString(s.Bases)
	}

	ref := b.String()
	m.IndexGenome(ref)

	return len(ref), nil
}

// IndexGenome adds seq to the reference index.
func (m *Mapper) IndexGenome(seq string) {
	m.index.Add(seq)
	m.refs = append(m.refs, seq)
}

// SampleKmers draws n k-mers from uniformly random start positions of the
// indexed reference, so every returned k-mer is present in the index. It
// returns nil when no indexed sequence is at least k bases long.
func (m *Mapper) SampleKmers(n int, seed int64) []string {
	// Index keys alias these strings.
	total := 0
	for _, ref := range m.refs {
		total += max(len(ref)-m.k+1, 0)
	}

	if total == 0 || n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]string, n)

	for i := range out {
		pos := rng.Intn(total)
		for _, ref := range m.refs {
			starts := max(len(ref)-m.k+1, 0)
			if pos < starts {
				out[i] = ref[pos : pos+m.k]
				break
			}
			pos -= starts
		}
	}

	return out
}

// AddReads appends reads to the set to be mapped.
func (m *Mapper) AddReads(reads ...genome.Sequence) {
	m.reads = append(m.reads, reads...)
}

// LoadReads loads reads from a FASTA or FASTQ file. Files of unknown
// format or without valid reads are skipped with a warning.
func (m *Mapper) LoadReads(path string) (int, error) {
	format, err := genome.DetectFormat(path)
	if err != nil {
		return 0, fmt.Errorf("detect format: %w", err)
	}

	var reads []genome.Sequence

	switch format {
	case genome.FASTA:
		reads, err = genome.ReadFastaFile(path)
		if err != nil {
			return 0, err
		}

	case genome.FASTQ:
		var skipped []error

		reads, skipped, err = genome.ReadFastqFile(path)
		if err != nil {
			return 0, err
		}

		for _, s := range skipped {
			m.logger.Warn("skipped malformed read",
				slog.String("file", path),
				slog.String("reason", s.Error()),
			)
		}

	default:
		m.logger.Warn("unknown read format, ignored",
			slog.String("file", path),
		)

		return 0, nil
	}

	if len(reads) == 0 {
		m.logger.Warn("no valid reads, ignored",
			slog.String("file", path),
		)

		return 0, nil
	}

	m.AddReads(reads...)

	return len(reads), nil
}

// LoadReadsFromDir loads reads from every regular file in dir.
func (m *Mapper) LoadReadsFromDir(dir string) (int, error) {
	files, err := genome.ListFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("load reads: %w", err)
	}

	total := 0
	for _, f := range files {
		n, err := m.LoadReads(f)
		if err != nil {
			return total, fmt.Errorf("load reads %s: %w", f, err)
		}

		total += n
	}

	m.logger.Info("reads loaded",
		slog.String("dir", dir),
		slog.Int("files", len(files)),
		slog.Int("reads", total),
	)

	return total, nil
}

// MapRead looks up the first k bases of read in the reference index.
func (m *Mapper) MapRead(read genome.Sequence) Mapping {
	out := Mapping{ReadID: read.ID}
	if len(read.Bases) < m.k {
		return out
	}

	out.Positions = m.index.Search(read.Bases[:m.k])

	return out
}

// MapReads maps every loaded read in load order.
func (m *Mapper) MapReads(ctx context.Context) ([]Mapping, error) {
	out := make([]Mapping, 0, len(m.reads))

	for i, r := range m.reads {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}

		out = append(out, m.MapRead(r))
	}

	return out, nil
}

// WriteMappings prints one line per mapping.
func WriteMappings(w io.Writer, mappings []Mapping) error {
	bw := bufio.NewWriter(w)

	for _, mp := range mappings {
		bw.WriteString("Read " + mp.ReadID + " mapped at positions: ")

		if !mp.Found() {
			bw.WriteString("Not found")
		}
		for _, p := range mp.Positions {
			bw.WriteString(strconv.Itoa(p))
			bw.WriteByte(' ')
		}

		bw.WriteByte('\n')
	}

	return bw.Flush()
}
