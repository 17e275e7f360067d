// Package meminfo reads system-wide available memory from /proc/meminfo.
package meminfo

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPath is the Linux memory-status pseudo-file.
const DefaultPath = "/proc/meminfo"

const (
	availableLabel = "MemAvailable:"
	swapFreeLabel  = "SwapFree:"
)

// Snapshot is a single reading of available RAM and swap, in bytes.
type Snapshot struct {
	AvailableRAM  uint64
	AvailableSwap uint64
}

// TotalAvailable returns RAM plus swap.
func (s Snapshot) TotalAvailable() uint64 {
	return s.AvailableRAM + s.AvailableSwap
}

// Probe reads snapshots from a meminfo-formatted file.
type Probe struct {
	path string
}

func NewProbe(path string) *Probe {
	return &Probe{path: path}
}

// Read returns the current snapshot. It fails only when the file cannot be
// read; malformed values read as zero.
func (p *Probe) Read() (Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "reading %s", p.path)
	}
	return Parse(bytes.NewReader(data))
}

// Parse scans meminfo text for the MemAvailable and SwapFree lines.
func Parse(r io.Reader) (Snapshot, error) {
	var s Snapshot
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := scan.Text()
		switch {
		case strings.HasPrefix(line, availableLabel):
			s.AvailableRAM = parseKiB(line)
		case strings.HasPrefix(line, swapFreeLabel):
			s.AvailableSwap = parseKiB(line)
		}
	}
	if err := scan.Err(); err != nil {
		return Snapshot{}, errors.Wrap(err, "scanning meminfo")
	}
	return s, nil
}

// parseKiB converts the value of a "<Label>: <n> kB" line to bytes, or 0.
func parseKiB(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	kb, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return kb << 10
}
