// Package genome reads nucleotide sequences from FASTA and FASTQ files.
package genome

import "strings"

// Sequence is a FASTA record or a FASTQ read. Quality is empty for FASTA.
type Sequence struct {
	ID      string
	Bases   string
	Quality string
}

// HasQuality reports whether the sequence came with per-base qualities.
func (s Sequence) HasQuality() bool {
	return s.Quality != ""
}

// String renders the sequence as a FASTQ entry when it has qualities and
// as a FASTA entry otherwise.
func (s Sequence) String() string {
	var b strings.Builder

	if s.HasQuality() {
		b.WriteString("@" + s.ID + "\n")
		b.WriteString(s.Bases + "\n")
		b.WriteString("+\n")
		b.WriteString(s.Quality)

		return b.String()
	}

	b.WriteString(">" + s.ID + "\n")
	b.WriteString(s.Bases)

	return b.String()
}

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A',
	'R': 'Y', 'Y': 'R',
	'S': 'S', 'W': 'W',
	'K': 'M', 'M': 'K',
	'B': 'V', 'V': 'B',
	'D': 'H', 'H': 'D',
	'N': 'N',
}

// ReverseComplement returns the reverse complement of seq. IUPAC codes are
// complemented, anything else becomes N. Lowercase input stays lowercase.
func ReverseComplement(seq string) string {
	n := len(seq)
	out := make([]byte, n)

	for i := 0; i < n; i++ {
		b := seq[n-1-i]
		lower := b >= 'a' && b <= 'z'
		if lower {
			b -= 'a' - 'A'
		}

		c := complement[b]
		if c == 0 {
			c = 'N'
		}
		if lower {
			c += 'a' - 'A'
		}

		out[i] = c
	}

	return string(out)
}
