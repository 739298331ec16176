//go:build !linux

package engine

import (
	"fmt"
	"os"
)

type UringExecutor struct{}

func NewUring() (*UringExecutor, error) {
	return nil, fmt.Errorf("uring engine is only supported on Linux")
}

func (e *UringExecutor) Issue(f *os.File, buf []byte, offset int64, dir Direction) (int, error) {
	return 0, ioErr("submit", offset, fmt.Errorf("uring engine is only supported on Linux"))
}

func (e *UringExecutor) Close() error { return nil }
