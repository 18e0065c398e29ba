// Package dataset holds per-genome benchmark measurements of the k-mer
// mapper and the built-in numbers the charts were first drawn from.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Measurement holds the benchmark numbers for one genome.
type Measurement struct {
	Genome             string  `json:"genome"`
	Label              string  `json:"label"`
	SizeBP             float64 `json:"size_bp"`
	RealSeconds        float64 `json:"real_seconds"`
	PeakMemoryMB       float64 `json:"peak_memory_mb"`
	MapReadsSeconds    float64 `json:"map_reads_seconds"`
	IndexGenomeSeconds float64 `json:"index_genome_seconds"`
	SearchKmerSeconds  float64 `json:"search_kmer_seconds"`
}

// Dataset is an ordered set of measurements, one per genome. Every
// accessor returns len(d) values in the same order.
type Dataset []Measurement

// Builtin returns the measurements collected for the six reference
// genomes. The returned slice is a fresh copy.
func Builtin() Dataset {
	return Dataset{
		{
			Genome: "ecoli", Label: "E. coli (4Mb)", SizeBP: 4.6e6,
			RealSeconds: 6.52, PeakMemoryMB: 427,
			MapReadsSeconds: 1.865, IndexGenomeSeconds: 1.77,
			SearchKmerSeconds: 8.0e-6,
		},
		{
			Genome: "scerevisiae", Label: "S. cerevisiae (12Mb)", SizeBP: 12.1e6,
			RealSeconds: 1.30, PeakMemoryMB: 26,
			MapReadsSeconds: 0.0304, IndexGenomeSeconds: 0.0307,
			SearchKmerSeconds: 7.0e-6,
		},
		{
			Genome: "celegans", Label: "C. elegans (100Mb)", SizeBP: 100.2e6,
			RealSeconds: 19.87, PeakMemoryMB: 1180,
			MapReadsSeconds: 5.93, IndexGenomeSeconds: 5.61,
			SearchKmerSeconds: 14.0e-6,
		},
		{
			Genome: "dmelanogaster", Label: "D. melanogaster (142Mb)", SizeBP: 142.6e6,
			RealSeconds: 34.98, PeakMemoryMB: 1951,
			MapReadsSeconds: 10.52, IndexGenomeSeconds: 11.3,
			SearchKmerSeconds: 10.0e-6,
		},
		{
			Genome: "osativa", Label: "O. sativa(386Mb)", SizeBP: 386.3e6,
			RealSeconds: 75.04, PeakMemoryMB: 3382,
			MapReadsSeconds: 23.41, IndexGenomeSeconds: 20.53,
			SearchKmerSeconds: 11.0e-6,
		},
		{
			Genome: "drerio", Label: "D. rerio (1.6Gb)", SizeBP: 1.674e9,
			RealSeconds: 888.70, PeakMemoryMB: 4095,
			MapReadsSeconds: 220.1, IndexGenomeSeconds: 119.9,
			SearchKmerSeconds: 65.0e-6,
		},
	}
}

// Validate checks that the dataset can be drawn on logarithmic axes.
func (d Dataset) Validate() error {
	if len(d) == 0 {
		return errors.New("dataset is empty")
	}

	for i, m := range d {
		if m.Label == "" {
			return fmt.Errorf("measurement %d: empty label", i)
		}

		fields := []struct {
			name  string
			value float64
		}{
			{"size_bp", m.SizeBP},
			{"real_seconds", m.RealSeconds},
			{"peak_memory_mb", m.PeakMemoryMB},
			{"map_reads_seconds", m.MapReadsSeconds},
			{"index_genome_seconds", m.IndexGenomeSeconds},
			{"search_kmer_seconds", m.SearchKmerSeconds},
		}

		for _, f := range fields {
			if !(f.value > 0) || math.IsInf(f.value, 0) {
				return fmt.Errorf("%s: %s must be positive and finite, got %v",
					m.Label, f.name, f.value)
			}
		}
	}

	return nil
}

// Labels returns the display label of each genome.
func (d Dataset) Labels() []string {
	out := make([]string, len(d))
	for i, m := range d {
		out[i] = m.Label
	}

	return out
}

// Sizes returns genome sizes in base pairs.
func (d Dataset) Sizes() []float64 {
	return d.column(func(m Measurement) float64 { return m.SizeBP })
}

// RealTimes returns real execution times in seconds.
func (d Dataset) RealTimes() []float64 {
	return d.column(func(m Measurement) float64 { return m.RealSeconds })
}

// PeakMemory returns peak memory usage in megabytes.
func (d Dataset) PeakMemory() []float64 {
	return d.column(func(m Measurement) float64 { return m.PeakMemoryMB })
}

// MapReads returns read mapping times in seconds.
func (d Dataset) MapReads() []float64 {
	return d.column(func(m Measurement) float64 { return m.MapReadsSeconds })
}

// IndexGenome returns genome indexing times in seconds.
func (d Dataset) IndexGenome() []float64 {
	return d.column(func(m Measurement) float64 { return m.IndexGenomeSeconds })
}

// SearchKmer returns mean k-mer lookup times in seconds.
func (d Dataset) SearchKmer() []float64 {
	return d.column(func(m Measurement) float64 { return m.SearchKmerSeconds })
}

func (d Dataset) column(get func(Measurement) float64) []float64 {
	out := make([]float64, len(d))
	for i, m := range d {
		out[i] = get(m)
	}

	return out
}

// Load decodes a JSON array of measurements from r and validates it.
func Load(r io.Reader) (Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	return d, nil
}

// LoadFile reads a dataset from a JSON file.
func LoadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Save writes the dataset to w as indented JSON.
func (d Dataset) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(d)
}

// SaveFile writes the dataset to path as indented JSON.
func (d Dataset) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}

	if err := d.Save(f); err != nil {
		f.Close()

		return fmt.Errorf("write dataset %s: %w", path, err)
	}

	return f.Close()
}
