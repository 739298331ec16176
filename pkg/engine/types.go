package engine

import (
	"fmt"
	"strings"
	"time"
)

// Pattern selects how offsets advance across iterations.
type Pattern int

const (
	Sequential Pattern = iota
	Random
)

// Direction selects whether an I/O reads from or writes to the target.
type Direction int

const (
	Read Direction = iota
	Write
)

// Mode is one of the four workload shapes, expressed as two independent facets.
type Mode struct {
	Pattern   Pattern
	Direction Direction
}

var (
	RandomRead      = Mode{Pattern: Random, Direction: Read}
	RandomWrite     = Mode{Pattern: Random, Direction: Write}
	SequentialRead  = Mode{Pattern: Sequential, Direction: Read}
	SequentialWrite = Mode{Pattern: Sequential, Direction: Write}
)

// Modes lists every supported mode in flag order.
var Modes = []Mode{RandomRead, RandomWrite, SequentialRead, SequentialWrite}

// Abbrev returns the two-letter code used in the I/O log (RR, RW, SR, SW).
func (m Mode) Abbrev() string {
	p := "S"
	if m.Pattern == Random {
		p = "R"
	}
	d := "R"
	if m.Direction == Write {
		d = "W"
	}
	return p + d
}

// FlagName returns the CLI spelling of the mode without dashes (rread, swrite, ...).
func (m Mode) FlagName() string {
	p := "s"
	if m.Pattern == Random {
		p = "r"
	}
	d := "read"
	if m.Direction == Write {
		d = "write"
	}
	return p + d
}

func (m Mode) String() string {
	p := "Sequential"
	if m.Pattern == Random {
		p = "Random"
	}
	d := "read"
	if m.Direction == Write {
		d = "write"
	}
	return p + " " + d
}

// ParseMode accepts a flag name ("rread") or a log abbreviation ("RR").
func ParseMode(s string) (Mode, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "--")
	for _, m := range Modes {
		if strings.EqualFold(s, m.FlagName()) || strings.EqualFold(s, m.Abbrev()) {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("unknown I/O mode %q (want rread, rwrite, sread or swrite)", s)
}

// Workload describes a single benchmark run. It is built once from validated
// configuration and never modified afterwards.
type Workload struct {
	Dir        string // Working directory holding the target file and logs
	Mode       Mode
	BlockSize  int   // Size of each I/O in bytes
	Count      int64 // Number of I/Os to issue
	FileSize   int64 // Minimum target file length in bytes
	ClearCache bool  // Drop the page cache after preparing the target
	WriteLog   bool  // Persist the per-operation log as CSV
}

// LogEntry records one completed I/O.
type LogEntry struct {
	Elapsed   time.Duration // Since the loop start instant
	Offset    int64
	Requested int
	Completed int
}

// State tracks the execution loop lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
