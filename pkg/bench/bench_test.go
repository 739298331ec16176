package bench

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/iolog"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/target"
)

func okDropper() target.CacheDropper {
	return target.DropperFunc(func() error { return nil })
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local)
}

func TestRunWritesLogAndSummary(t *testing.T) {
	dir := t.TempDir()
	w := engine.Workload{
		Dir:        dir,
		Mode:       engine.SequentialWrite,
		BlockSize:  4096,
		Count:      200,
		FileSize:   200 * 4096,
		ClearCache: true,
		WriteLog:   true,
	}
	var out bytes.Buffer
	rep, err := Run(w, Options{Out: &out, Engine: engine.Options{Dropper: okDropper()}, Now: fixedClock})
	require.NoError(t, err)
	require.True(t, rep.HasSummary)
	require.Len(t, rep.Logs, 200)
	require.Equal(t, filepath.Join(dir, "benchmark-io_2026-10-16-12-00-00.log"), rep.LogPath)

	for _, line := range []string{
		"Preparing target file ... done.",
		"Clearing page cache ... done.",
		"Running benchmark ... done.",
		"Summary:",
		"Writing log to " + filepath.Join(dir, "benchmark-io_2026-10-16-12-00-00.log") + " ... done.",
	} {
		require.Contains(t, out.String(), line)
	}

	// The persisted log must reproduce the in-memory summary.
	records, err := iolog.Read(rep.LogPath)
	require.NoError(t, err)
	require.Len(t, records, len(rep.Logs))
	for i, rec := range records {
		require.Equal(t, rep.Logs[i].Offset, rec.Offset)
		require.Equal(t, rep.Logs[i].Completed, rec.Completed)
		require.Equal(t, rep.Logs[i].Elapsed, rec.Elapsed)
		require.Equal(t, "SW", rec.Mode)
	}

	var total int64
	for _, rec := range records {
		total += int64(rec.Completed)
	}
	sec := records[len(records)-1].Elapsed.Seconds()
	require.InDelta(t, float64(total)/(1<<20)/sec, rep.Summary.ThroughputMiBps, 1e-6*rep.Summary.ThroughputMiBps)
	require.InDelta(t, 200/sec, rep.Summary.IOPS, 1e-6*rep.Summary.IOPS)

	again, ok := stats.SummarizeRecords(records, w.Count)
	require.True(t, ok)
	require.Equal(t, rep.Summary, again)
	require.False(t, math.IsInf(rep.Summary.IOPS, 0))
}

func TestRunWithoutLog(t *testing.T) {
	dir := t.TempDir()
	w := engine.Workload{
		Dir:       dir,
		Mode:      engine.RandomRead,
		BlockSize: 512,
		Count:     100,
		FileSize:  512 * 100,
	}
	var out bytes.Buffer
	rep, err := Run(w, Options{Out: &out})
	require.NoError(t, err)
	require.True(t, rep.HasSummary)
	require.Empty(t, rep.LogPath)
	require.Contains(t, out.String(), "Summary:")
	require.NotContains(t, out.String(), "Clearing page cache")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the target file should exist")
	require.Equal(t, target.FileName, entries[0].Name())
}

func TestRunCacheClearFailure(t *testing.T) {
	w := engine.Workload{
		Dir:        t.TempDir(),
		Mode:       engine.RandomRead,
		BlockSize:  4096,
		Count:      10,
		FileSize:   1 << 20,
		ClearCache: true,
		WriteLog:   true,
	}
	dropper := target.DropperFunc(func() error {
		return &target.CacheClearError{Command: []string{"false"}, ExitCode: 1, Err: errors.New("exit status 1")}
	})

	rep, err := Run(w, Options{Engine: engine.Options{Dropper: dropper}})
	require.Nil(t, rep)
	var ccErr *target.CacheClearError
	require.True(t, errors.As(err, &ccErr))
}

func TestRunLogWriteFailureKeepsSummary(t *testing.T) {
	dir := t.TempDir()
	w := engine.Workload{
		Dir:       dir,
		Mode:      engine.SequentialRead,
		BlockSize: 512,
		Count:     8,
		FileSize:  4096,
		WriteLog:  true,
	}
	// A directory squatting on the log file name makes os.Create fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, iolog.FileName(fixedClock())), 0755))

	var out bytes.Buffer
	rep, err := Run(w, Options{Out: &out, Now: fixedClock})
	var lwErr *iolog.LogWriteError
	require.True(t, errors.As(err, &lwErr))
	require.NotNil(t, rep)
	require.True(t, rep.HasSummary)
	require.Positive(t, rep.Summary.IOPS)
	require.Contains(t, out.String(), "Summary:")
}

func TestRunAllocationFailure(t *testing.T) {
	w := engine.Workload{
		Dir:       filepath.Join(t.TempDir(), "missing"),
		Mode:      engine.SequentialWrite,
		BlockSize: 512,
		Count:     1,
		FileSize:  512,
	}
	rep, err := Run(w, Options{})
	require.Nil(t, rep)
	var allocErr *target.AllocationError
	require.True(t, errors.As(err, &allocErr))
}
