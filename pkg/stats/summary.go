// Package stats derives whole-run figures from an I/O log.
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/iolog"
)

const mib = 1 << 20

// Summary holds aggregate results for one run.
type Summary struct {
	Elapsed         time.Duration // Elapsed time of the last logged I/O
	TotalBytes      int64         // Sum of completed bytes
	Count           int64
	ThroughputMiBps float64
	IOPS            float64
	MeanLatencyMs   float64
}

// Seconds returns the elapsed time in seconds.
func (s Summary) Seconds() float64 { return s.Elapsed.Seconds() }

// Summarize computes the summary of logs for a run of count I/Os. It reports
// false when there is nothing to summarize.
func Summarize(logs []engine.LogEntry, count int64) (Summary, bool) {
	if len(logs) == 0 {
		return Summary{}, false
	}
	var total int64
	for _, l := range logs {
		total += int64(l.Completed)
	}
	return compute(logs[len(logs)-1].Elapsed, total, count), true
}

// SummarizeRecords does the same for a log read back from disk.
func SummarizeRecords(records []iolog.Record, count int64) (Summary, bool) {
	if len(records) == 0 {
		return Summary{}, false
	}
	var total int64
	for _, r := range records {
		total += int64(r.Completed)
	}
	return compute(records[len(records)-1].Elapsed, total, count), true
}

// FromTotals builds a summary from pre-aggregated figures, for sources that do
// not expose individual operations.
func FromTotals(elapsed time.Duration, totalBytes, count int64) (Summary, bool) {
	if elapsed <= 0 || count <= 0 {
		return Summary{}, false
	}
	return compute(elapsed, totalBytes, count), true
}

func compute(elapsed time.Duration, totalBytes, count int64) Summary {
	sec := elapsed.Seconds()
	s := Summary{
		Elapsed:    elapsed,
		TotalBytes: totalBytes,
		Count:      count,
	}
	if sec > 0 {
		s.ThroughputMiBps = float64(totalBytes) / mib / sec
		s.IOPS = float64(count) / sec
	}
	if count > 0 {
		s.MeanLatencyMs = sec / float64(count) * 1e3
	}
	return s
}

// Print writes the summary in the CLI's labeled layout.
func (s Summary) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, `Summary:
  Elapsed time  %.3f [s]
  Throughput    %.3f [MiB/s]
  IOPS          %.3f
  Mean latency  %.3f [ms]
`, s.Seconds(), s.ThroughputMiBps, s.IOPS, s.MeanLatencyMs)
	return err
}
