// Package stress leaks memory until the host runs low, then reports.
package stress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vish/mleak/internal/leak"
	"github.com/vish/mleak/internal/logfile"
	"github.com/vish/mleak/internal/meminfo"
	"github.com/vish/mleak/internal/monitor"
	"github.com/vish/mleak/internal/report"
)

// Result describes a finished run.
type Result struct {
	LogPath     string
	Allocations int
	LeakedBytes uint64
	// Summary is nil when the final memory reading failed.
	Summary *report.Summary
}

// Run leaks cfg.BlockSize blocks until the monitor reports that available
// memory dropped below cfg.Threshold, then writes the final report. Errors
// are returned only for log setup and log write failures.
func Run(cfg Config) (Result, error) {
	blockSize := cfg.BlockSize.Value()
	threshold := cfg.Threshold.Value()
	if blockSize <= 0 {
		return Result{}, errors.Errorf("block size must be positive, got %q", cfg.BlockSize.String())
	}
	if threshold < 0 {
		return Result{}, errors.Errorf("threshold must not be negative, got %q", cfg.Threshold.String())
	}

	if err := logfile.EnsureDir(cfg.LogDir); err != nil {
		return Result{}, err
	}
	log, err := logfile.Create(cfg.LogDir, cfg.Now())
	if err != nil {
		return Result{}, err
	}
	defer log.Close()
	res := Result{LogPath: log.Path()}

	probe := cfg.Probe
	if probe == nil {
		probe = meminfo.NewProbe(cfg.MemInfoPath)
	}
	console := &syncWriter{w: cfg.Stdout}

	glog.Infof("Leaking memory in %q blocks until available memory drops below %q, polling every %v; logging to %s",
		cfg.BlockSize.String(), cfg.Threshold.String(), cfg.PollInterval, res.LogPath)

	var (
		stop atomic.Bool
		g    errgroup.Group
		mon  = monitor.New(probe, uint64(threshold), cfg.PollInterval, console)
	)
	g.Go(func() error {
		mon.Run(&stop)
		return nil
	})

	tracker := leak.NewTracker(int(blockSize))
	err = produce(tracker, &stop, console, log)
	if err != nil {
		// Release the monitor so it can be joined.
		stop.Store(true)
	}
	g.Wait()
	res.Allocations = tracker.Count()
	res.LeakedBytes = tracker.TotalBytes()
	if err != nil {
		return res, err
	}
	glog.V(1).Infof("Monitor %s after %d allocations", mon.State(), res.Allocations)

	final, err := probe.Read()
	if err != nil {
		glog.Errorf("Failed to read final memory stats: %v", err)
		return res, nil
	}
	s := report.Summary{
		Final:       final,
		LeakedBytes: res.LeakedBytes,
		Allocations: res.Allocations,
		BlockSize:   tracker.BlockSize(),
	}
	res.Summary = &s
	if err := report.Write(console, log, s); err != nil {
		return res, err
	}
	return res, nil
}

// produce allocates without pause until stop is observed. The flag is
// checked after each allocation, so the first allocation always happens and
// one more may follow the monitor's decision.
func produce(t *leak.Tracker, stop *atomic.Bool, console, log io.Writer) error {
	kb := t.BlockSize() >> 10
	for {
		t.Add()
		line := fmt.Sprintf("Leaked %dKB of memory (Total leaks: %d)\n", kb, t.Count())
		fmt.Fprint(console, line)
		if _, err := io.WriteString(log, line); err != nil {
			return errors.Wrap(err, "logging allocation")
		}
		if stop.Load() {
			return nil
		}
	}
}

// syncWriter serializes console output from the producer and the monitor.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
