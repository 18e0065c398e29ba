// Package report formats genome benchmark measurements into comparison
// tables.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/kmerbench/kmerbench/dataset"
)

// Generate writes a markdown comparison table for the given measurements.
func Generate(w io.Writer, ds dataset.Dataset) error {
	if len(ds) == 0 {
		return fmt.Errorf("no measurements to report")
	}

	fastest := findFastest(ds)

	fmt.Fprintln(w, "## Genome Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Genome | Size | Real Time | MapReads | IndexGenome "+
		"| SearchKmer | Peak Mem | Slowdown |")
	fmt.Fprintln(w, "|--------|------|-----------|----------|-------------"+
		"|------------|----------|----------|")

	for _, m := range ds {
		slowdown := 1.0
		if fastest > 0 && m.RealSeconds > 0 {
			slowdown = m.RealSeconds / fastest
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %.2fx |\n",
			m.Label,
			formatBases(m.SizeBP),
			formatSeconds(m.RealSeconds),
			formatSeconds(m.MapReadsSeconds),
			formatSeconds(m.IndexGenomeSeconds),
			formatSeconds(m.SearchKmerSeconds),
			formatMB(m.PeakMemoryMB),
			slowdown,
		)
	}

	fmt.Fprintln(w)

	// Throughput rows.
	fmt.Fprintln(w, "| Genome | Index Throughput | Map Share |")
	fmt.Fprintln(w, "|--------|------------------|-----------|")

	for _, m := range ds {
		fmt.Fprintf(w, "| %s | %s | %s |\n",
			m.Label,
			formatRate(m.SizeBP, m.IndexGenomeSeconds),
			formatShare(m.MapReadsSeconds, m.RealSeconds),
		)
	}

	return nil
}

// GenerateJSON writes measurements as JSON to w.
func GenerateJSON(w io.Writer, ds dataset.Dataset) error {
	return ds.Save(w)
}

func findFastest(ds dataset.Dataset) float64 {
	fastest := math.Inf(1)
	for _, m := range ds {
		if m.RealSeconds > 0 && m.RealSeconds < fastest {
			fastest = m.RealSeconds
		}
	}

	if math.IsInf(fastest, 1) {
		return 0
	}

	return fastest
}

func formatSeconds(s float64) string {
	switch {
	case s <= 0:
		return "-"
	case s < 1e-6:
		return fmt.Sprintf("%.1fns", s*1e9)
	case s < 1e-3:
		return fmt.Sprintf("%.1fµs", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.1fms", s*1e3)
	default:
		return fmt.Sprintf("%.2fs", s)
	}
}

func formatBases(bp float64) string {
	if bp <= 0 {
		return "-"
	}

	return humanize.SIWithDigits(bp, 1, "bp")
}

func formatMB(mb float64) string {
	if mb <= 0 {
		return "-"
	}

	return humanize.Bytes(uint64(mb * 1e6))
}

func formatRate(bp, seconds float64) string {
	if bp <= 0 || seconds <= 0 {
		return "-"
	}

	return humanize.SIWithDigits(bp/seconds, 1, "bp/s")
}

func formatShare(part, total float64) string {
	if part <= 0 || total <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", 100*part/total)
}
