//go:build unix

package engine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocBuffer returns a page-aligned anonymous mapping of size bytes.
func allocBuffer(size int) ([]byte, func() error, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to allocate aligned memory: %v", err)
	}
	return buf, func() error { return unix.Munmap(buf) }, nil
}
