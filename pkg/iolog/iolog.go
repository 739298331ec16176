// Package iolog persists per-operation benchmark logs as CSV and reads them back.
package iolog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/runningwild/iobench/pkg/engine"
)

// Header is the first row of every log file.
var Header = []string{"elapsed_time", "io_type", "offset", "issue_bs", "complete_s"}

const nameLayout = "benchmark-io_2006-01-02-15-04-05.log"

// LogWriteError reports that a log file could not be created or written.
type LogWriteError struct {
	Path string
	Err  error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("write log %s: %v", e.Path, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }

// FileName returns the log file name for a run finishing at now.
func FileName(now time.Time) string {
	return now.Format(nameLayout)
}

// FormatElapsed renders d as <seconds>.<nanoseconds>, with nanoseconds zero
// padded to nine digits.
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%d.%09d", int64(d/time.Second), int64(d%time.Second))
}

// ParseElapsed is the inverse of FormatElapsed.
func ParseElapsed(s string) (time.Duration, error) {
	secStr, nsStr, ok := strings.Cut(s, ".")
	if !ok || len(nsStr) != 9 {
		return 0, fmt.Errorf("malformed elapsed time %q", s)
	}
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed elapsed time %q: %w", s, err)
	}
	ns, err := strconv.ParseInt(nsStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed elapsed time %q: %w", s, err)
	}
	return time.Duration(sec)*time.Second + time.Duration(ns), nil
}

// Write stores logs under dir in a file named after now and returns its path.
func Write(dir string, mode engine.Mode, blockSize int, logs []engine.LogEntry, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return path, &LogWriteError{Path: path, Err: err}
	}

	if err := writeRows(f, mode, blockSize, logs); err != nil {
		f.Close()
		return path, &LogWriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return path, &LogWriteError{Path: path, Err: err}
	}
	return path, nil
}

func writeRows(f *os.File, mode engine.Mode, blockSize int, logs []engine.LogEntry) error {
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}

	abbrev := mode.Abbrev()
	bs := strconv.Itoa(blockSize)
	row := make([]string, len(Header))
	for _, l := range logs {
		row[0] = FormatElapsed(l.Elapsed)
		row[1] = abbrev
		row[2] = strconv.FormatInt(l.Offset, 10)
		row[3] = bs
		row[4] = strconv.Itoa(l.Completed)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
