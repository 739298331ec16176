package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/runningwild/iobench/pkg/bench"
	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/fio"
	"github.com/runningwild/iobench/pkg/iolog"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/target"
)

const program = "iobench"

const usage = `Simple file I/O benchmark.

Usage:
  iobench [options] (--rread | --rwrite | --sread | --swrite) WORKDIR
  iobench fio-job [options] (--rread | --rwrite | --sread | --swrite) WORKDIR
  iobench fio-report FIO_JSON
  iobench summarize [--count=N] LOGFILE

Options:
`

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", program, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process status. Asking for help is not a failure.
func exitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	return 1
}

func run(args []string, stdout io.Writer) error {
	// Dispatch subcommands
	if len(args) > 0 {
		switch args[0] {
		case "fio-job":
			return runFioJobCmd(args[1:], stdout)
		case "fio-report":
			return runFioReportCmd(args[1:], stdout)
		case "summarize":
			return runSummarizeCmd(args[1:], stdout)
		}
	}
	return runBenchCmd(args, stdout)
}

// Flags holds pointers to all supported CLI flags
type Flags struct {
	fs *pflag.FlagSet

	ConfigFile  *string
	WriteConfig *string

	RRead  *bool
	RWrite *bool
	SRead  *bool
	SWrite *bool

	BS           *int
	Count        *int64
	FileSizeGiB  *int64
	NoClearCache *bool
	NoWriteLog   *bool
	EngineType   *string
	Settle       *time.Duration
}

func SetupFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	f.ConfigFile = fs.String("config", "", "Load the configuration from this YAML file instead of flags")
	f.WriteConfig = fs.String("write-config", "", "Save the resulting configuration to this YAML file")

	f.RRead = fs.Bool("rread", false, "Issue random reads")
	f.RWrite = fs.Bool("rwrite", false, "Issue random writes")
	f.SRead = fs.Bool("sread", false, "Issue sequential reads")
	f.SWrite = fs.Bool("swrite", false, "Issue sequential writes")

	f.BS = fs.IntP("bs", "b", config.DefaultBlockSize, "Block size of each I/O in bytes")
	f.Count = fs.Int64P("count", "c", config.DefaultCount, "Total number of I/Os")
	f.FileSizeGiB = fs.Int64("filesize-gib", config.DefaultFileSizeGiB, "Target file size in GiB")
	f.NoClearCache = fs.Bool("no-clear-cache", false, "Skip clearing page cache in setup")
	f.NoWriteLog = fs.Bool("no-write-log", false, "Skip writing I/O log")
	f.EngineType = fs.String("engine", config.DefaultEngineType, "I/O engine: 'sync' or 'uring'")
	f.Settle = fs.Duration("settle", 0, "Wait at least this long after setup begins before issuing I/O")
	return f
}

// LoadConfig builds a Config from the config file, if given, or from flags and
// the positional WORKDIR.
func (f *Flags) LoadConfig() (*config.Config, error) {
	if *f.ConfigFile != "" {
		cfg, err := config.Load(*f.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if f.fs.NArg() > 0 {
			cfg.Workdir = f.fs.Arg(0)
		}
		return cfg, nil
	}

	var modes []string
	for _, m := range []struct {
		set  bool
		name string
	}{
		{*f.RRead, "rread"},
		{*f.RWrite, "rwrite"},
		{*f.SRead, "sread"},
		{*f.SWrite, "swrite"},
	} {
		if m.set {
			modes = append(modes, m.name)
		}
	}
	if len(modes) > 1 {
		return nil, fmt.Errorf("only one I/O type may be specified, got %v", modes)
	}
	if f.fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", f.fs.Args()[1:])
	}

	clearCache := !*f.NoClearCache
	writeLog := !*f.NoWriteLog
	cfg := &config.Config{
		Workdir:     f.fs.Arg(0),
		BlockSize:   *f.BS,
		Count:       *f.Count,
		FileSizeGiB: *f.FileSizeGiB,
		ClearCache:  &clearCache,
		WriteLog:    &writeLog,
		EngineType:  *f.EngineType,
		Settle:      *f.Settle,
	}
	if len(modes) == 1 {
		cfg.Mode = modes[0]
	}
	return cfg, nil
}

func (f *Flags) MaybeWriteConfig(cfg *config.Config, stdout io.Writer) {
	if *f.WriteConfig == "" {
		return
	}
	if err := cfg.Save(*f.WriteConfig); err != nil {
		fmt.Fprintf(stdout, "Warning: Failed to write config file: %v\n", err)
		return
	}
	fmt.Fprintf(stdout, "Configuration written to %s\n", *f.WriteConfig)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage+fs.FlagUsages())
	}
	return fs
}

func parseWorkload(name string, args []string, stdout io.Writer) (*config.Config, engine.Workload, error) {
	fs := newFlagSet(name)
	f := SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, engine.Workload{}, err
	}

	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, engine.Workload{}, err
	}
	w, err := cfg.Workload()
	if err != nil {
		return nil, engine.Workload{}, err
	}
	f.MaybeWriteConfig(cfg, stdout)
	return cfg, w, nil
}

// runBenchCmd handles "iobench [flags] WORKDIR"
func runBenchCmd(args []string, stdout io.Writer) error {
	cfg, w, err := parseWorkload(program, args, stdout)
	if err != nil {
		return err
	}
	hello(stdout, w, cfg.EngineType)

	_, err = bench.Run(w, bench.Options{
		Out: stdout,
		Engine: engine.Options{
			EngineType: cfg.EngineType,
			Dropper:    target.CommandDropper{Command: cfg.CacheClearCommand},
			Settle:     cfg.Settle,
		},
	})
	return err
}

func hello(w io.Writer, wl engine.Workload, engineType string) {
	fmt.Fprintf(w, `%s; Simple file I/O benchmark.

Config:
  Working directory  %s
  I/O type           %s
  Block size [byte]  %d
  Count              %d
  File size [GiB]    %d
  Engine             %s
`, program, wl.Dir, wl.Mode, wl.BlockSize, wl.Count, wl.FileSize>>30, engineType)
}

// runFioJobCmd handles "iobench fio-job [flags] WORKDIR"
func runFioJobCmd(args []string, stdout io.Writer) error {
	cfg, w, err := parseWorkload("fio-job", args, io.Discard)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, fio.GenerateJob(w, cfg.EngineType))
	return err
}

// runFioReportCmd handles "iobench fio-report FIO_JSON"
func runFioReportCmd(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s fio-report FIO_JSON", program)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	sum, err := fio.ParseOutput(data)
	if err != nil {
		return fmt.Errorf("parse fio output: %w", err)
	}
	return sum.Print(stdout)
}

// runSummarizeCmd handles "iobench summarize [--count=N] LOGFILE"
func runSummarizeCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("summarize")
	count := fs.Int64P("count", "c", 0, "Configured I/O count (default: number of log rows)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s summarize [--count=N] LOGFILE", program)
	}

	records, err := iolog.Read(fs.Arg(0))
	if err != nil {
		return err
	}
	n := *count
	if n <= 0 {
		n = int64(len(records))
	}
	sum, ok := stats.SummarizeRecords(records, n)
	if !ok {
		return fmt.Errorf("%s: log is empty", fs.Arg(0))
	}
	return sum.Print(stdout)
}
