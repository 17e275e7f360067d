package stress

import (
	"io"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/vish/mleak/internal/logfile"
	"github.com/vish/mleak/internal/meminfo"
	"github.com/vish/mleak/internal/monitor"
)

// Config holds the tunables of a run. The binary always runs with
// DefaultConfig.
type Config struct {
	// LogDir is created if needed and receives one log file per run.
	LogDir string
	// MemInfoPath is read by the default probe.
	MemInfoPath string
	// Probe overrides the /proc/meminfo probe when set.
	Probe monitor.Reader

	// BlockSize is the size of every leaked allocation.
	BlockSize resource.Quantity
	// Threshold is the RAM+swap availability below which the run stops.
	Threshold resource.Quantity
	// PollInterval paces the monitor.
	PollInterval time.Duration

	Stdout io.Writer
	Now    func() time.Time
}

func DefaultConfig() Config {
	return Config{
		LogDir:       logfile.DefaultDir,
		MemInfoPath:  meminfo.DefaultPath,
		BlockSize:    resource.MustParse("100Ki"),
		Threshold:    resource.MustParse("100Mi"),
		PollInterval: 10 * time.Millisecond,
		Stdout:       os.Stdout,
		Now:          time.Now,
	}
}
