package target

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultDropCommand asks the kernel to drop the page cache, dentries and inodes.
var DefaultDropCommand = []string{"sudo", "sysctl", "-w", "vm.drop_caches=3"}

// CacheDropper discards cached pages so that a benchmark starts cold.
type CacheDropper interface {
	DropCache() error
}

// DropperFunc adapts a function to CacheDropper.
type DropperFunc func() error

func (f DropperFunc) DropCache() error { return f() }

// CacheClearError reports a failed cache drop. Output holds whatever the
// command printed on stdout and stderr.
type CacheClearError struct {
	Command  []string
	ExitCode int // -1 if the command never ran to completion
	Output   []byte
	Err      error
}

func (e *CacheClearError) Error() string {
	msg := fmt.Sprintf("clear page cache: %q: %v", strings.Join(e.Command, " "), e.Err)
	if out := bytes.TrimSpace(e.Output); len(out) > 0 {
		msg += ": " + string(out)
	}
	return msg
}

func (e *CacheClearError) Unwrap() error { return e.Err }

// CommandDropper runs an external, usually privileged, command and blocks
// until it exits. An empty Command means DefaultDropCommand.
type CommandDropper struct {
	Command []string
}

func (d CommandDropper) DropCache() error {
	args := d.Command
	if len(args) == 0 {
		args = DefaultDropCommand
	}
	out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	if err == nil {
		return nil
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CacheClearError{Command: args, ExitCode: code, Output: out, Err: err}
}
