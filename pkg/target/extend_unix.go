//go:build unix

package target

import (
	"os"

	"golang.org/x/sys/unix"
)

// extend sets the file length without writing data, leaving a hole.
func extend(f *os.File, size int64) error {
	return unix.Ftruncate(int(f.Fd()), size)
}
