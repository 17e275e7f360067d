// Package logfile manages the per-run log file of allocation events.
package logfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// DefaultDir is created in the working directory to hold run logs.
const DefaultDir = "mleak100.log"

// EnsureDir creates dir if it does not exist. An existing directory is left
// as is.
func EnsureDir(dir string) error {
	err := os.Mkdir(dir, 0755)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return errors.Wrapf(err, "creating log directory %s", dir)
}

// Name returns the log file name for a run started at t.
func Name(t time.Time) string {
	return fmt.Sprintf("leak_log_%d.txt", t.UnixMilli())
}

// File is a log file flushed after every write.
type File struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

// Create creates the log file for a run started at t inside dir.
func Create(dir string, t time.Time) (*File, error) {
	path := filepath.Join(dir, Name(t))
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating log file")
	}
	return &File{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (l *File) Path() string {
	return l.path
}

// Write writes p and flushes it to the file.
func (l *File) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil {
		return n, errors.Wrapf(err, "writing %s", l.path)
	}
	if err := l.w.Flush(); err != nil {
		return n, errors.Wrapf(err, "flushing %s", l.path)
	}
	return n, nil
}

func (l *File) WriteString(s string) (int, error) {
	return l.Write([]byte(s))
}

func (l *File) Close() error {
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return errors.Wrapf(err, "flushing %s", l.path)
	}
	return l.f.Close()
}
