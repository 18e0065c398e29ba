package harness

import (
	"os"
	"syscall"
)

// maxRSS returns the peak resident set size of a finished child. Darwin
// reports ru_maxrss in bytes.
func maxRSS(ps *os.ProcessState) uint64 {
	if ps == nil {
		return 0
	}

	ru, ok := ps.SysUsage().(*syscall.Rusage)
	if !ok || ru.Maxrss <= 0 {
		return 0
	}

	return uint64(ru.Maxrss)
}
