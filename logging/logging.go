// Package logging tees the standard logger into a size-capped file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Log files rotate at 10MB, keeping a single .1 backup.
const (
	defaultMaxSize = 10 * 1024 * 1024
	backupSuffix   = ".1"
)

// RotatingWriter appends to a log file and swaps it out for a fresh
// one once it grows past the size cap.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	written int64
	maxSize int64
}

// Setup routes the standard logger to stdout plus a rotating file at
// logPath. The returned writer must be closed on shutdown.
func Setup(logPath string) (*RotatingWriter, error) {
	rw, err := newRotatingWriter(logPath, defaultMaxSize)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func newRotatingWriter(path string, maxSize int64) (*RotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var written int64
	if info, err := f.Stat(); err == nil {
		written = info.Size()
	}

	rw := &RotatingWriter{
		file:    f,
		path:    path,
		written: written,
		maxSize: maxSize,
	}
	if rw.written > rw.maxSize {
		rw.rotate()
	}
	return rw, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		w.rotate()
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// rotate moves the current file aside and starts a fresh one. On
// failure logging continues into the old file rather than being lost.
func (w *RotatingWriter) rotate() {
	w.file.Close()
	os.Rename(w.path, w.path+backupSuffix)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		if reopened, rerr := os.OpenFile(w.path+backupSuffix, os.O_WRONLY|os.O_APPEND, 0644); rerr == nil {
			w.file = reopened
		}
		return
	}
	w.file = f
	w.written = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
