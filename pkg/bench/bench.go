// Package bench runs a complete benchmark: setup, the timed loop and teardown.
package bench

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/iolog"
	"github.com/runningwild/iobench/pkg/stats"
)

// Options configure a run. Engine is passed through to engine.Setup, with its
// Out defaulting to Out.
type Options struct {
	Out    io.Writer
	Engine engine.Options
	Now    func() time.Time // Clock used to name the log file
}

// Report is what a run produced. Logs is populated even when the loop failed
// part way through.
type Report struct {
	Logs       []engine.LogEntry
	Summary    stats.Summary
	HasSummary bool
	LogPath    string
}

// Run executes w end to end. A setup failure returns a nil report. A log write
// failure returns the report, with its summary, alongside the error.
func Run(w engine.Workload, opts Options) (*Report, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	eopts := opts.Engine
	if eopts.Out == nil {
		eopts.Out = out
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	eng, err := engine.Setup(w, eopts)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	fmt.Fprint(out, "\nRunning benchmark ... ")
	if err := eng.Run(); err != nil {
		fmt.Fprintln(out)
		return &Report{Logs: eng.Logs()}, err
	}
	fmt.Fprintln(out, "done.")

	return teardown(eng, out, now())
}

func teardown(eng *engine.Engine, out io.Writer, now time.Time) (*Report, error) {
	w := eng.Workload()
	rep := &Report{Logs: eng.Logs()}
	rep.Summary, rep.HasSummary = stats.Summarize(rep.Logs, w.Count)
	if rep.HasSummary {
		fmt.Fprintln(out)
		if err := rep.Summary.Print(out); err != nil {
			return rep, err
		}
	}

	if !w.WriteLog {
		return rep, nil
	}
	fmt.Fprintf(out, "Writing log to %s ... ", filepath.Join(w.Dir, iolog.FileName(now)))
	path, err := iolog.Write(w.Dir, w.Mode, w.BlockSize, rep.Logs, now)
	if err != nil {
		fmt.Fprintln(out)
		return rep, err
	}
	rep.LogPath = path
	fmt.Fprintln(out, "done.")
	return rep, nil
}
