//go:build linux

package engine

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/godzie44/go-uring/uring"
)

// UringExecutor issues each I/O through a depth-1 io_uring, so requests still
// go out one at a time.
type UringExecutor struct {
	ring *uring.Ring
}

func NewUring() (*UringExecutor, error) {
	ring, err := uring.New(1)
	if err != nil {
		return nil, fmt.Errorf("failed to setup io_uring: %v", err)
	}
	return &UringExecutor{ring: ring}, nil
}

func (e *UringExecutor) Issue(f *os.File, buf []byte, offset int64, dir Direction) (int, error) {
	var op uring.Operation
	if dir == Read {
		op = uring.Read(f.Fd(), buf, uint64(offset))
	} else {
		op = uring.Write(f.Fd(), buf, uint64(offset))
	}
	if err := e.ring.QueueSQE(op, 0, uint64(offset)); err != nil {
		return 0, ioErr("submit", offset, err)
	}

	for {
		_, err := e.ring.Submit()
		if err == nil {
			break
		}
		if !isEINTR(err) {
			return 0, ioErr("submit", offset, err)
		}
	}

	var cqe *uring.CQEvent
	var err error
	for {
		cqe, err = e.ring.WaitCQEvents(1)
		if err == nil || !isEINTR(err) {
			break
		}
	}
	if err != nil {
		return 0, ioErr("wait", offset, err)
	}
	res := cqe.Res
	e.ring.SeenCQE(cqe)

	if res < 0 {
		name := "read"
		if dir == Write {
			name = "write"
		}
		return 0, ioErr(name, offset, syscall.Errno(-res))
	}
	n := int(res)
	if dir == Write {
		if err := datasync(f); err != nil {
			return n, ioErr("sync", offset, err)
		}
	}
	return n, nil
}

func (e *UringExecutor) Close() error {
	return e.ring.Close()
}

func isEINTR(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EINTR) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err == syscall.EINTR
	}
	return false
}
