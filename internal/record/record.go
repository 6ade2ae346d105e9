// Package record moves received bytes from the receive queue into the
// binary and CSV record files of the active workspace.
package record

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrDecode marks a line that was not valid UTF-8. Such lines are dropped.
	ErrDecode = errors.New("record: line is not valid utf-8")
	// ErrNothingRecorded is returned by Save when both record files are empty or absent.
	ErrNothingRecorded = errors.New("record: nothing recorded")
)

// TimestampLayout renders local time with a ±HH:MM offset.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// CsvRecord is one newline-terminated line of received text.
type CsvRecord struct {
	Sequence  uint64
	Timestamp time.Time
	Line      string
}

// AppendCSV appends the row "seq;timestamp;line\n" to dst.
func (r CsvRecord) AppendCSV(dst []byte) []byte {
	dst = strconv.AppendUint(dst, r.Sequence, 10)
	dst = append(dst, ';')
	dst = r.Timestamp.AppendFormat(dst, TimestampLayout)
	dst = append(dst, ';')
	dst = append(dst, r.Line...)
	return append(dst, '\n')
}

func (r CsvRecord) String() string {
	return string(r.AppendCSV(nil))
}
