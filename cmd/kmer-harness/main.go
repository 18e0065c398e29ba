// kmer-harness loads a reference genome and a read set, runs the k-mer
// mapper over them, and outputs benchmark results as JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/kmerbench/kmerbench/harness"
	"github.com/kmerbench/kmerbench/mapper"
)

func main() {
	genomeName := flag.String("genome", "", "genome name reported in the result")
	refPath := flag.String("ref", "", "reference FASTA file")
	readsPath := flag.String("reads", "", "read file or directory of read files")
	k := flag.Int("k", 15, "k-mer length")
	searches := flag.Int("searches", 1000, "number of k-mer lookups to average")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	if *refPath == "" || *readsPath == "" {
		fatal("--ref and --reads flags are required")
	}
	if *searches < 1 {
		fatal("--searches must be at least 1, got %d", *searches)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	start := time.Now()

	m, err := mapper.New(*k, logger)
	if err != nil {
		fatal("create mapper: %v", err)
	}

	// IndexGenome: reading and indexing the reference.
	indexStart := time.Now()
	bases, err := m.LoadReference(*refPath)
	if err != nil {
		fatal("%v", err)
	}
	indexTime := time.Since(indexStart)

	numReads, err := loadReads(m, *readsPath)
	if err != nil {
		fatal("%v", err)
	}

	// MapReads.
	mapStart := time.Now()
	mappings, err := m.MapReads(context.Background())
	if err != nil {
		fatal("map reads: %v", err)
	}
	mapTime := time.Since(mapStart)

	mapped := 0
	for _, mp := range mappings {
		if mp.Found() {
			mapped++
		}
	}

	searchNs, err := meanSearchNs(m, *searches)
	if err != nil {
		fatal("search k-mers: %v", err)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r := harness.Result{
		Genome:          *genomeName,
		ReferenceBases:  bases,
		Reads:           numReads,
		MappedReads:     mapped,
		K:               *k,
		ElapsedMs:       time.Since(start).Milliseconds(),
		IndexTimeMs:     durationMs(indexTime),
		MapTimeMs:       durationMs(mapTime),
		SearchKmerNs:    searchNs,
		PeakMemoryBytes: ms.Sys,
	}

	if err := json.NewEncoder(os.Stdout).Encode(r); err != nil {
		fatal("encode result: %v", err)
	}
}

func loadReads(m *mapper.Mapper, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat reads: %w", err)
	}

	if info.IsDir() {
		return m.LoadReadsFromDir(path)
	}

	return m.LoadReads(path)
}

// meanSearchNs times n lookups of k-mers sampled from the indexed reference
// with a fixed seed, so the result does not depend on the reads.
func meanSearchNs(m *mapper.Mapper, n int) (float64, error) {
	queries := m.SampleKmers(n, 1)
	if len(queries) == 0 {
		return 0, fmt.Errorf("reference is shorter than k=%d", m.Index().K())
	}

	hits := 0
	start := time.Now()
	for _, q := range queries {
		hits += len(m.Index().Search(q))
	}
	// A coarse clock can report zero for a short batch.
	elapsed := max(time.Since(start), time.Nanosecond)

	runtime.KeepAlive(hits)

	return float64(elapsed.Nanoseconds()) / float64(len(queries)), nil
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "kmer-harness: "+format+"\n", args...)
	os.Exit(1)
}
