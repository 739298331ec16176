// Package fio translates workloads into fio job files and fio results into
// summaries, so runs can be cross-checked against fio.
package fio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/target"
)

// GenerateJob creates a fio job file equivalent to w.
func GenerateJob(w engine.Workload, engineType string) string {
	var sb strings.Builder

	sb.WriteString("[global]\n")

	switch engineType {
	case "uring":
		sb.WriteString("ioengine=io_uring\n")
		sb.WriteString("iodepth=1\n")
	default:
		sb.WriteString("ioengine=sync\n")
	}

	sb.WriteString(fmt.Sprintf("filename=%s\n", target.Path(w.Dir)))
	sb.WriteString(fmt.Sprintf("bs=%d\n", w.BlockSize))
	sb.WriteString(fmt.Sprintf("size=%d\n", w.FileSize))
	sb.WriteString(fmt.Sprintf("number_ios=%d\n", w.Count))
	sb.WriteString("direct=0\n")

	rw := "read"
	if w.Mode.Direction == engine.Write {
		rw = "write"
	}
	if w.Mode.Pattern == engine.Random {
		rw = "rand" + rw
		// Draw offsets from the same span the sequential sweep covers.
		sb.WriteString(fmt.Sprintf("io_size=%d\n", int64(w.BlockSize)*w.Count))
		sb.WriteString("norandommap\n")
	}
	sb.WriteString(fmt.Sprintf("rw=%s\n", rw))

	if w.Mode.Direction == engine.Write {
		sb.WriteString("fdatasync=1\n")
	}
	if w.ClearCache {
		sb.WriteString("invalidate=1\n")
	} else {
		sb.WriteString("invalidate=0\n")
	}

	sb.WriteString("numjobs=1\n")
	sb.WriteString("\n[iobench_job]\n")
	return sb.String()
}

// Structures for parsing fio JSON output
type FioOutput struct {
	Jobs        []FioJob `json:"jobs"`
	ClientStats []FioJob `json:"client_stats"`
}

type FioJob struct {
	Read  FioStats `json:"read"`
	Write FioStats `json:"write"`
}

type FioStats struct {
	IOBytes  int64       `json:"io_bytes"`
	TotalIOS int64       `json:"total_ios"`
	Runtime  int64       `json:"runtime"` // Milliseconds
	IOPS     float64     `json:"iops"`
	ClatNs   FioLatStats `json:"clat_ns"`
}

type FioLatStats struct {
	Mean float64 `json:"mean"`
}

// ParseOutput reads fio's JSON output and summarizes it with the same formulas
// used for iobench's own logs.
func ParseOutput(jsonData []byte) (stats.Summary, error) {
	var out FioOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return stats.Summary{}, err
	}

	jobs := out.Jobs
	if len(jobs) == 0 {
		jobs = out.ClientStats
	}
	if len(jobs) == 0 {
		return stats.Summary{}, fmt.Errorf("fio output contains no jobs")
	}

	var totalBytes, totalIOs, runtimeMs int64
	for _, j := range jobs {
		for _, s := range []FioStats{j.Read, j.Write} {
			totalBytes += s.IOBytes
			totalIOs += s.TotalIOS
			if s.Runtime > runtimeMs {
				runtimeMs = s.Runtime
			}
		}
	}

	sum, ok := stats.FromTotals(time.Duration(runtimeMs)*time.Millisecond, totalBytes, totalIOs)
	if !ok {
		return stats.Summary{}, fmt.Errorf("fio output reports no completed I/O")
	}
	return sum, nil
}
