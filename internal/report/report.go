// Package report formats the end-of-run statistics.
package report

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/vish/mleak/internal/meminfo"
)

// Trailer is appended to the log file after the summary.
const Trailer = "Process terminated due to memory threshold.\n"

const (
	kib = 1 << 10
	mib = 1 << 20
)

type Summary struct {
	Final       meminfo.Snapshot
	LeakedBytes uint64
	Allocations int
	BlockSize   int
}

func (s Summary) String() string {
	return fmt.Sprintf("\nFinal Statistics:\n"+
		"----------------\n"+
		"Available RAM: %d MB\n"+
		"Available Swap: %d MB\n"+
		"Total Available: %d MB\n"+
		"Total Memory Leaked: %d MB (%d allocations of %dKB each)\n",
		s.Final.AvailableRAM/mib,
		s.Final.AvailableSwap/mib,
		s.Final.TotalAvailable()/mib,
		s.LeakedBytes/mib,
		s.Allocations,
		s.BlockSize/kib)
}

// Write prints s to console and appends s and Trailer to log.
func Write(console, log io.Writer, s Summary) error {
	text := s.String()
	fmt.Fprint(console, text)
	if _, err := io.WriteString(log, text); err != nil {
		return errors.Wrap(err, "writing summary")
	}
	if _, err := io.WriteString(log, Trailer); err != nil {
		return errors.Wrap(err, "writing trailer")
	}
	return nil
}
