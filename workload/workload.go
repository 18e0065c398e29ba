// Package workload generates deterministic synthetic genomes for k-mer
// mapper benchmarking. A workload is a random reference in FASTA format and
// a FASTQ read set sampled from it with optional substitution errors.
package workload

import (
	"bufio"
	"fmt"
	"io"
	mrand "math/rand"
)

const bases = "ACGT"

// Summary contains statistics about the generated workload.
type Summary struct {
	ReferenceBases int
	Reads          int
	MutatedBases   int
}

// Config controls workload generation parameters.
type Config struct {
	Name       string
	GenomeSize int
	NumReads   int
	ReadLength int
	ErrorRate  float64
	Seed       int64
	LineWidth  int
}

// Generator produces deterministic workloads from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = 60
	}
	if cfg.Name == "" {
		cfg.Name = "synthetic"
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Generate writes the reference to refW as FASTA and the reads to readsW
// as FASTQ, and returns a Summary.
func (g *Generator) Generate(refW, readsW io.Writer) (Summary, error) {
	var summary Summary

	if g.cfg.GenomeSize <= 0 {
		return summary, fmt.Errorf("genome size must be positive, got %d",
			g.cfg.GenomeSize)
	}
	if g.cfg.NumReads > 0 &&
		(g.cfg.ReadLength <= 0 || g.cfg.ReadLength > g.cfg.GenomeSize) {
		return summary, fmt.Errorf("read length %d out of range (1..%d)",
			g.cfg.ReadLength, g.cfg.GenomeSize)
	}

	ref := g.randomSequence(g.cfg.GenomeSize)

	if err := g.writeReference(refW, ref); err != nil {
		return summary, fmt.Errorf("write reference: %w", err)
	}

	summary.ReferenceBases = len(ref)

	bw := bufio.NewWriter(readsW)
	qual := make([]byte, g.cfg.ReadLength)
	for i := range qual {
		qual[i] = 'I'
	}

	read := make([]byte, g.cfg.ReadLength)

	for i := 0; i < g.cfg.NumReads; i++ {
		start := g.rng.Intn(len(ref) - g.cfg.ReadLength + 1)
		copy(read, ref[start:start+g.cfg.ReadLength])

		summary.MutatedBases += g.mutate(read)

		if _, err := fmt.Fprintf(bw, "@%s_read%d pos=%d\n%s\n+\n%s\n",
			g.cfg.Name, i+1, start, read, qual); err != nil {
			return summary, fmt.Errorf("write read %d: %w", i+1, err)
		}

		summary.Reads++
	}

	if err := bw.Flush(); err != nil {
		return summary, fmt.Errorf("write reads: %w", err)
	}

	return summary, nil
}

func (g *Generator) writeReference(w io.Writer, ref []byte) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, ">%s length=%d\n", g.cfg.Name, len(ref)); err != nil {
		return err
	}

	for off := 0; off < len(ref); off += g.cfg.LineWidth {
		end := min(off+g.cfg.LineWidth, len(ref))

		bw.Write(ref[off:end])
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func (g *Generator) randomSequence(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = bases[g.rng.Intn(len(bases))]
	}

	return buf
}

// mutate substitutes bases of read in place with probability ErrorRate
// and returns the number of substitutions.
func (g *Generator) mutate(read []byte) int {
	if g.cfg.ErrorRate <= 0 {
		return 0
	}

	n := 0
	for i, b := range read {
		if g.rng.Float64() >= g.cfg.ErrorRate {
			continue
		}

		// Pick one of the three other bases.
		alt := bases[g.rng.Intn(len(bases)-1)]
		if alt >= b {
			alt = nextBase(alt)
		}

		read[i] = alt
		n++
	}

	return n
}

func nextBase(b byte) byte {
	switch b {
	case 'A':
		return 'C'
	case 'C':
		return 'G'
	default:
		return 'T'
	}
}
