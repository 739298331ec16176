package engine

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runningwild/iobench/pkg/target"
)

// Options tune how an Engine is assembled. The zero value runs the sync
// executor, drops caches with the default command and reports nothing.
type Options struct {
	Out        io.Writer           // Progress messages; nil discards them
	EngineType string              // "sync" or "uring"; ignored if Executor is set
	Executor   Executor            // Overrides EngineType
	Dropper    target.CacheDropper // nil means target.CommandDropper{}
	Rand       *rand.Rand          // nil means seeded from runtime entropy
	Settle     time.Duration       // Delay that must elapse before Run may start
}

// Engine owns the target file, the I/O buffer and the operation log for one run.
type Engine struct {
	w     Workload
	out   io.Writer
	exec  Executor
	rng   *rand.Rand
	file  *os.File
	buf   []byte
	free  func() error
	state State
	start time.Time
	logs  []LogEntry
}

// Setup prepares the target file, optionally drops the page cache and returns
// an engine ready to Run. If opts.Settle is set, the delay runs alongside
// preparation and Setup does not return until it has elapsed.
func Setup(w Workload, opts Options) (*Engine, error) {
	if w.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", w.BlockSize)
	}
	if w.Count <= 0 {
		return nil, fmt.Errorf("invalid count: %d", w.Count)
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	var g errgroup.Group
	if opts.Settle > 0 {
		g.Go(func() error {
			time.Sleep(opts.Settle)
			return nil
		})
	}
	var e *Engine
	g.Go(func() error {
		var err error
		e, err = setup(w, opts, out)
		return err
	})

	if err := g.Wait(); err != nil {
		if e != nil {
			e.Close()
		}
		return nil, err
	}
	return e, nil
}

func setup(w Workload, opts Options, out io.Writer) (*Engine, error) {
	e := &Engine{w: w, out: out, rng: opts.Rand}

	fmt.Fprint(out, "Preparing target file ... ")
	f, err := target.Prepare(w.Dir, w.FileSize)
	if err != nil {
		fmt.Fprintln(out)
		return nil, err
	}
	e.file = f
	fmt.Fprintln(out, "done.")

	if w.ClearCache {
		dropper := opts.Dropper
		if dropper == nil {
			dropper = target.CommandDropper{}
		}
		fmt.Fprint(out, "Clearing page cache ... ")
		if err := dropper.DropCache(); err != nil {
			fmt.Fprintln(out)
			return e, err
		}
		fmt.Fprintln(out, "done.")
	}

	e.buf, e.free, err = allocBuffer(w.BlockSize)
	if err != nil {
		return e, err
	}

	e.exec = opts.Executor
	if e.exec == nil {
		if e.exec, err = NewExecutor(opts.EngineType); err != nil {
			return e, err
		}
	}

	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.logs = make([]LogEntry, 0, w.Count)
	return e, nil
}

// Run issues Count I/Os back to back. The first failure stops the loop; entries
// logged before it stay available through Logs.
func (e *Engine) Run() error {
	if e.state != NotStarted {
		return fmt.Errorf("engine is %s", e.state)
	}
	if e.file == nil {
		return errors.New("engine is closed")
	}
	e.state = Running
	e.start = time.Now()

	w := e.w
	for i := int64(0); i < w.Count; i++ {
		offset := OffsetFor(w.Mode, i, w.BlockSize, w.Count, e.rng)
		n, err := e.exec.Issue(e.file, e.buf, offset, w.Mode.Direction)
		if err != nil {
			// A transfer cut short by an error still moved n bytes.
			if n > 0 {
				e.logs = append(e.logs, LogEntry{
					Elapsed:   time.Since(e.start),
					Offset:    offset,
					Requested: w.BlockSize,
					Completed: n,
				})
			}
			e.state = Failed
			var ioe *IoError
			if !errors.As(err, &ioe) {
				ioe = ioErr("io", offset, err)
			}
			ioe.Index = i
			return ioe
		}
		e.logs = append(e.logs, LogEntry{
			Elapsed:   time.Since(e.start),
			Offset:    offset,
			Requested: w.BlockSize,
			Completed: n,
		})
	}

	e.state = Completed
	return nil
}

// Logs returns the entries recorded so far, in issuance order.
func (e *Engine) Logs() []LogEntry { return e.logs }

func (e *Engine) State() State { return e.state }

func (e *Engine) Workload() Workload { return e.w }

// Start returns the loop start instant, or the zero time before Run.
func (e *Engine) Start() time.Time { return e.start }

// Close releases the executor, the buffer and the target file. It is safe to
// call more than once.
func (e *Engine) Close() error {
	var errs []error
	if e.exec != nil {
		errs = append(errs, e.exec.Close())
		e.exec = nil
	}
	if e.free != nil {
		errs = append(errs, e.free())
		e.free = nil
		e.buf = nil
	}
	if e.file != nil {
		errs = append(errs, e.file.Close())
		e.file = nil
	}
	return errors.Join(errs...)
}
