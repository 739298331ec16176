package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Executor issues a single I/O against the target file.
type Executor interface {
	// Issue transfers buf at offset and returns the bytes actually moved.
	// Reads at or past EOF return 0 without error. Writes are durable on return.
	Issue(f *os.File, buf []byte, offset int64, dir Direction) (int, error)
	Close() error
}

// IoError reports a failed seek, read, write or sync.
type IoError struct {
	Op     string
	Offset int64
	Index  int64 // Iteration that failed, -1 if unknown
	Err    error
}

func (e *IoError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("io #%d at offset %d: %s: %v", e.Index, e.Offset, e.Op, e.Err)
	}
	return fmt.Sprintf("io at offset %d: %s: %v", e.Offset, e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

func ioErr(op string, offset int64, err error) *IoError {
	return &IoError{Op: op, Offset: offset, Index: -1, Err: err}
}

// NewExecutor returns the executor for engineType ("sync" or "uring").
// An empty type selects sync.
func NewExecutor(engineType string) (Executor, error) {
	switch engineType {
	case "", "sync":
		return SyncExecutor{}, nil
	case "uring":
		u, err := NewUring()
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	return nil, fmt.Errorf("unknown engine type %q (want sync or uring)", engineType)
}

// SyncExecutor seeks and then performs a blocking read or write.
type SyncExecutor struct{}

func (SyncExecutor) Issue(f *os.File, buf []byte, offset int64, dir Direction) (int, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, ioErr("seek", offset, err)
	}
	if dir == Read {
		n, err := f.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return n, ioErr("read", offset, err)
		}
		return n, nil
	}

	n, err := f.Write(buf)
	if err != nil {
		return n, ioErr("write", offset, err)
	}
	if err := datasync(f); err != nil {
		return n, ioErr("sync", offset, err)
	}
	return n, nil
}

func (SyncExecutor) Close() error { return nil }
