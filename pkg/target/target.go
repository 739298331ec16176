// Package target prepares the file a benchmark runs against and controls the
// page cache around it.
package target

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the name of the target file inside the working directory.
const FileName = "benchmark-io.bin"

// AllocationError reports that the target file could not be opened or sized.
type AllocationError struct {
	Op   string // open, stat, extend or rewind
	Path string
	Size int64
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("prepare target %s (%d bytes): %s: %v", e.Path, e.Size, e.Op, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Path returns the location of the target file for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Prepare opens the target file in dir, creating it if needed, and makes sure
// it is at least size bytes long. Growth is sparse; an existing larger file is
// left alone. The returned file is positioned at offset 0.
func Prepare(dir string, size int64) (*os.File, error) {
	path := Path(dir)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &AllocationError{Op: "open", Path: path, Size: size, Err: err}
	}

	fail := func(op string, err error) (*os.File, error) {
		f.Close()
		return nil, &AllocationError{Op: op, Path: path, Size: size, Err: err}
	}

	actual, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fail("stat", err)
	}
	if actual < size {
		if err := extend(f, size); err != nil {
			return fail("extend", err)
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail("rewind", err)
	}
	return f, nil
}
