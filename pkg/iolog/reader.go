package iolog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"
)

// Record is one parsed row of a log file.
type Record struct {
	Elapsed   time.Duration
	Mode      string // RR, RW, SR or SW
	Offset    int64
	Requested int
	Completed int
}

// Read parses a log file written by Write.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	r.ReuseRecord = true

	head, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, head)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (Record, error) {
	var rec Record
	var err error
	if rec.Elapsed, err = ParseElapsed(row[0]); err != nil {
		return rec, err
	}
	rec.Mode = row[1]
	if rec.Offset, err = strconv.ParseInt(row[2], 10, 64); err != nil {
		return rec, fmt.Errorf("offset: %w", err)
	}
	if rec.Requested, err = strconv.Atoi(row[3]); err != nil {
		return rec, fmt.Errorf("issue_bs: %w", err)
	}
	if rec.Completed, err = strconv.Atoi(row[4]); err != nil {
		return rec, fmt.Errorf("complete_s: %w", err)
	}
	return rec, nil
}
