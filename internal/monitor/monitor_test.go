package monitor

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vish/mleak/internal/meminfo"
)

const threshold = 100 << 20

type reading struct {
	snap meminfo.Snapshot
	err  error
}

// scriptedProbe replays readings in order, repeating the last one forever.
type scriptedProbe struct {
	readings []reading
	calls    int
}

func (p *scriptedProbe) Read() (meminfo.Snapshot, error) {
	i := p.calls
	if i >= len(p.readings) {
		i = len(p.readings) - 1
	}
	p.calls++
	return p.readings[i].snap, p.readings[i].err
}

func snap(ramMiB, swapMiB uint64) reading {
	return reading{snap: meminfo.Snapshot{AvailableRAM: ramMiB << 20, AvailableSwap: swapMiB << 20}}
}

func TestRunStopsBelowThreshold(t *testing.T) {
	probe := &scriptedProbe{readings: []reading{
		snap(4096, 1024),
		{err: errors.New("boom")},
		snap(100, 0), // equal to the threshold is not below it
		snap(50, 10),
	}}
	var out bytes.Buffer
	m := New(probe, threshold, time.Millisecond, &out)
	var stop atomic.Bool

	assert.Equal(t, Running, m.State())
	m.Run(&stop)

	assert.True(t, stop.Load())
	assert.Equal(t, Stopped, m.State())
	assert.Equal(t, 4, probe.calls)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Available RAM: 4096 MB, Available Swap: 1024 MB, Total Available: 5120 MB", lines[0])
	assert.Equal(t, "Available RAM: 100 MB, Available Swap: 0 MB, Total Available: 100 MB", lines[1])
	assert.Equal(t, "Available RAM: 50 MB, Available Swap: 10 MB, Total Available: 60 MB", lines[2])
	assert.Equal(t, "Total available memory below threshold! Terminating process...", lines[3])
}

func TestRunStopFlagNeverReverts(t *testing.T) {
	probe := &scriptedProbe{readings: []reading{snap(50, 10)}}
	m := New(probe, threshold, time.Millisecond, &bytes.Buffer{})
	var stop atomic.Bool
	m.Run(&stop)
	require.True(t, stop.Load())

	// A second run observes the latch and exits without polling.
	m.Run(&stop)
	assert.True(t, stop.Load())
	assert.Equal(t, 1, probe.calls)
	assert.Equal(t, Stopped, m.State())
}

func TestRunStopsWithinOneInterval(t *testing.T) {
	probe := &scriptedProbe{readings: []reading{snap(50, 10)}}
	m := New(probe, threshold, 10*time.Millisecond, &bytes.Buffer{})
	var stop atomic.Bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(&stop)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.True(t, stop.Load())
	assert.Equal(t, 1, probe.calls)
}

func TestRunExitsWhenAlreadyStopped(t *testing.T) {
	probe := &scriptedProbe{readings: []reading{snap(4096, 0)}}
	m := New(probe, threshold, time.Millisecond, &bytes.Buffer{})
	var stop atomic.Bool
	stop.Store(true)

	m.Run(&stop)
	assert.Equal(t, 0, probe.calls)
	assert.Equal(t, Running, m.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "State(7)", State(7).String())
}
