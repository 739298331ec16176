package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iobench/pkg/target"
)

func TestRunBenchmarkNoLog(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := run([]string{"--swrite", "--bs=4096", "-c", "5", "--no-clear-cache", "--no-write-log", dir}, &out)
	require.NoError(t, err)

	s := out.String()
	require.Contains(t, s, "I/O type           Sequential write")
	require.Contains(t, s, "Summary:")
	require.Contains(t, s, "Mean latency")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, target.FileName, entries[0].Name())
}

func TestRunBenchmarkWritesLogThenSummarize(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run([]string{"--sread", "--bs=512", "--count=50", "--no-clear-cache", dir}, &out))

	matches, err := filepath.Glob(filepath.Join(dir, "benchmark-io_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	var sum bytes.Buffer
	require.NoError(t, run([]string{"summarize", "--count=50", matches[0]}, &sum))
	require.True(t, strings.HasPrefix(sum.String(), "Summary:\n"))
}

func TestRunConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"no mode", []string{dir}},
		{"two modes", []string{"--rread", "--swrite", dir}},
		{"no workdir", []string{"--rread"}},
		{"negative block size", []string{"--rread", "--bs=-1", dir}},
		{"negative count", []string{"--rread", "--count=-5", dir}},
		{"zero block size", []string{"--rread", "--bs=0", dir}},
		{"zero count", []string{"--rread", "--count=0", dir}},
		{"zero file size", []string{"--rread", "--filesize-gib=0", dir}},
		{"zero count fio job", []string{"fio-job", "--rread", "--count=0", dir}},
		{"unknown flag", []string{"--rread", "--direct", dir}},
		{"unknown engine", []string{"--rread", "--engine=libaio", dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.Error(t, run(tt.args, &out))
			require.NotContains(t, out.String(), "Summary:")
		})
	}
}

func TestRunWriteAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "bench.yaml")

	var out bytes.Buffer
	require.NoError(t, run([]string{"fio-job", "--rwrite", "-b", "8192", "-c", "10", "--write-config", cfgPath, dir}, &out))
	require.Contains(t, out.String(), "rw=randwrite")
	require.Contains(t, out.String(), "bs=8192")

	out.Reset()
	require.NoError(t, run([]string{"fio-job", "--config", cfgPath}, &out))
	require.Contains(t, out.String(), "rw=randwrite")
	require.Contains(t, out.String(), "number_ios=10")
}

func TestRunFioReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"jobs":[{"read":{"io_bytes":1048576,"total_ios":256,"runtime":1000}}]}`), 0644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"fio-report", path}, &out))
	require.Contains(t, out.String(), "IOPS          256.000")

	require.Error(t, run([]string{"fio-report"}, &out))
}

func TestHelpExitsZero(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--help"}, &out)
	require.ErrorIs(t, err, pflag.ErrHelp)
	require.Equal(t, 0, exitCode(err))
	require.Empty(t, out.String())

	require.Equal(t, 0, exitCode(nil))
	require.Equal(t, 1, exitCode(run([]string{"--rread"}, &out)))
}
