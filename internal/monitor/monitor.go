// Package monitor polls available memory and raises a stop flag once it
// falls below a threshold.
package monitor

import (
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/vish/mleak/internal/meminfo"
)

const mib = 1 << 20

// Reader produces memory snapshots. *meminfo.Probe implements it.
type Reader interface {
	Read() (meminfo.Snapshot, error)
}

type State int32

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Monitor struct {
	probe     Reader
	threshold uint64
	interval  time.Duration
	out       io.Writer
	state     atomic.Int32
}

// New returns a monitor that stops once RAM plus swap drops strictly below
// threshold bytes, polling every interval and printing readings to out.
func New(probe Reader, threshold uint64, interval time.Duration, out io.Writer) *Monitor {
	return &Monitor{
		probe:     probe,
		threshold: threshold,
		interval:  interval,
		out:       out,
	}
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Run polls until the threshold is breached, then sets stop and returns.
// It also returns, without touching stop, if stop is already set.
// Run occupies its own OS thread for its whole duration.
func (m *Monitor) Run(stop *atomic.Bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for !stop.Load() {
		if m.poll() {
			m.state.Store(int32(Stopped))
			stop.Store(true)
			return
		}
		time.Sleep(m.interval)
	}
}

// poll reports whether the threshold has been breached. Probe failures are
// logged and count as not breached.
func (m *Monitor) poll() bool {
	s, err := m.probe.Read()
	if err != nil {
		glog.Errorf("Failed to read memory info: %v", err)
		return false
	}
	total := s.TotalAvailable()
	fmt.Fprintf(m.out, "Available RAM: %d MB, Available Swap: %d MB, Total Available: %d MB\n",
		s.AvailableRAM/mib, s.AvailableSwap/mib, total/mib)
	if total >= m.threshold {
		return false
	}
	fmt.Fprintln(m.out, "Total available memory below threshold! Terminating process...")
	return true
}
