// Package harness builds and runs the kmer-harness binary that benchmarks
// the mapper on one genome per process.
package harness

import "github.com/kmerbench/kmerbench/dataset"

// Result holds the structured output from a harness execution. WallMs,
// MaxRSSBytes and Label are filled in by the Runner.
type Result struct {
	Genome          string  `json:"genome"`
	Label           string  `json:"label,omitempty"`
	ReferenceBases  int     `json:"reference_bases"`
	Reads           int     `json:"reads"`
	MappedReads     int     `json:"mapped_reads"`
	K               int     `json:"k"`
	ElapsedMs       int64   `json:"elapsed_ms"`
	IndexTimeMs     float64 `json:"index_time_ms"`
	MapTimeMs       float64 `json:"map_time_ms"`
	SearchKmerNs    float64 `json:"search_kmer_ns"`
	PeakMemoryBytes uint64  `json:"peak_memory_bytes"`
	WallMs          int64   `json:"wall_ms,omitempty"`
	MaxRSSBytes     uint64  `json:"max_rss_bytes,omitempty"`
}

// Measurement converts the result into a chartable measurement. Real time
// is the wall time seen by the parent when known, and peak memory is the
// larger of the child's own report and its max RSS.
func (r Result) Measurement() dataset.Measurement {
	realMs := r.WallMs
	if realMs == 0 {
		realMs = r.ElapsedMs
	}

	peak := max(r.PeakMemoryBytes, r.MaxRSSBytes)

	label := r.Label
	if label == "" {
		label = r.Genome
	}

	return dataset.Measurement{
		Genome:             r.Genome,
		Label:              label,
		SizeBP:             float64(r.ReferenceBases),
		RealSeconds:        float64(realMs) / 1e3,
		PeakMemoryMB:       float64(peak) / 1e6,
		MapReadsSeconds:    r.MapTimeMs / 1e3,
		IndexGenomeSeconds: r.IndexTimeMs / 1e3,
		SearchKmerSeconds:  r.SearchKmerNs / 1e9,
	}
}

// ToDataset converts results in order.
func ToDataset(results []Result) dataset.Dataset {
	out := make(dataset.Dataset, len(results))
	for i, r := range results {
		out[i] = r.Measurement()
	}

	return out
}
