// Package kmer implements an exact-match k-mer position index.
package kmer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Index maps every k-mer of the indexed sequence to its start positions.
type Index struct {
	k       int
	offset  int
	entries map[string][]int
}

// New creates an empty index for k-mers of length k.
func New(k int) (*Index, error) {
	if k < 1 {
		return nil, fmt.Errorf("invalid k-mer size %d", k)
	}

	return &Index{k: k, entries: make(map[string][]int)}, nil
}

// K returns the k-mer length.
func (x *Index) K() int { return x.k }

// Len returns the number of distinct k-mers.
func (x *Index) Len() int { return len(x.entries) }

// Add indexes every k-mer of seq. Positions continue from the end of the
// previously added sequence, so repeated calls behave like indexing the
// concatenation.
func (x *Index) Add(seq string) {
	for i := 0; i+x.k <= len(seq); i++ {
		kmer := seq[i : i+x.k]
		x.entries[kmer] = append(x.entries[kmer], x.offset+i)
	}

	x.offset += len(seq)
}

// Search returns the ascending start positions of kmer, or nil when it is
// absent or not k bases long. The returned slice must not be modified.
func (x *Index) Search(kmer string) []int {
	if len(kmer) != x.k {
		return nil
	}

	return x.entries[kmer]
}

// WriteTo writes one "kmer -> p1 p2 " line per k-mer in lexical order.
// Every position is followed by a space, as in the mapping output.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	keys := make([]string, 0, len(x.entries))
	for k := range x.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)

	var n int64
	for _, k := range keys {
		line := make([]byte, 0, len(k)+16)
		line = append(line, k...)
		line = append(line, " -> "...)
		for _, p := range x.entries[k] {
			line = strconv.AppendInt(line, int64(p), 10)
			line = append(line, ' ')
		}
		line = append(line, '\n')

		m, err := bw.Write(line)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}
