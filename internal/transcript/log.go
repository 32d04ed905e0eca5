package transcript

import (
	"fmt"
	"strings"
)

// Domain tags a transcript record with its origin.
type Domain string

const (
	// DomainInput marks echoed user input shown behind an input prompt.
	DomainInput Domain = "IN"

	// DomainOutput marks the displayed value of an executed statement.
	DomainOutput Domain = "OUT"

	// DomainStdout marks raw text the running code printed.
	DomainStdout Domain = "STDOUT"

	// DomainControl marks structural records such as blank separators.
	DomainControl Domain = ""
)

// Record is one unit of transcript content. Prompt is the margin text rendered
// ahead of the record's content and may itself span several lines. Records are
// immutable once appended; replacing one goes through Log.Set.
type Record struct {
	Domain Domain
	Prompt string
	Text   string
}

// NumLines returns the number of rendered lines the prompt occupies.
func (r Record) NumLines() int {
	return strings.Count(r.Prompt, "\n")
}

// Log is the ordered transcript. The record slice and the two partitions are
// mutated in lockstep: linenos chunk i holds records[i].NumLines() and
// positions chunk i holds len(records[i].Text). A mismatch between the three
// is an internal invariant violation and panics.
type Log struct {
	records   []Record
	linenos   *Partition
	positions *Partition
}

// NewLog returns an empty transcript log.
func NewLog() *Log {
	return &Log{
		linenos:   NewPartition(),
		positions: NewPartition(),
	}
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Linenos exposes the line-count partition for position lookups.
func (l *Log) Linenos() *Partition {
	return l.linenos
}

// Positions exposes the character-count partition for position lookups.
func (l *Log) Positions() *Partition {
	return l.positions
}

// At returns record i. Negative indices count from the end.
func (l *Log) At(i int) (Record, error) {
	i, err := l.checkIndex(i)
	if err != nil {
		return Record{}, err
	}
	return l.records[i], nil
}

// Last returns the most recent record, if any.
func (l *Log) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// Append adds a record at the end.
func (l *Log) Append(rec Record) {
	l.records = append(l.records, rec)
	l.linenos.Append(rec.NumLines())
	l.positions.Append(len(rec.Text))
	l.checkSync()
}

// Insert places a record immediately before index i.
func (l *Log) Insert(i int, rec Record) error {
	i, err := l.checkIndex(i)
	if err != nil {
		return err
	}
	l.records = append(l.records, Record{})
	copy(l.records[i+1:], l.records[i:])
	l.records[i] = rec
	if err := l.linenos.Insert(i, rec.NumLines()); err != nil {
		panic(fmt.Sprintf("transcript: linenos desync on insert: %v", err))
	}
	if err := l.positions.Insert(i, len(rec.Text)); err != nil {
		panic(fmt.Sprintf("transcript: positions desync on insert: %v", err))
	}
	l.checkSync()
	return nil
}

// Set replaces record i.
func (l *Log) Set(i int, rec Record) error {
	i, err := l.checkIndex(i)
	if err != nil {
		return err
	}
	l.records[i] = rec
	if err := l.linenos.Set(i, rec.NumLines()); err != nil {
		panic(fmt.Sprintf("transcript: linenos desync on set: %v", err))
	}
	if err := l.positions.Set(i, len(rec.Text)); err != nil {
		panic(fmt.Sprintf("transcript: positions desync on set: %v", err))
	}
	l.checkSync()
	return nil
}

// Delete removes record i.
func (l *Log) Delete(i int) error {
	i, err := l.checkIndex(i)
	if err != nil {
		return err
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	if err := l.linenos.Delete(i); err != nil {
		panic(fmt.Sprintf("transcript: linenos desync on delete: %v", err))
	}
	if err := l.positions.Delete(i); err != nil {
		panic(fmt.Sprintf("transcript: positions desync on delete: %v", err))
	}
	l.checkSync()
	return nil
}

// DeleteRange removes records [i, j). Used when an editing operation swallows
// whole records, for example a selection deletion spanning record boundaries.
func (l *Log) DeleteRange(i, j int) error {
	n := len(l.records)
	if j < 0 {
		j += n
	}
	if i == j {
		return nil
	}
	i, err := l.checkIndex(i)
	if err != nil {
		return err
	}
	if i > j || j > n {
		return fmt.Errorf("%w: range [%d, %d) in log of length %d", ErrIndexRange, i, j, n)
	}
	for k := j - 1; k >= i; k-- {
		if err := l.Delete(k); err != nil {
			panic(fmt.Sprintf("transcript: desync on range delete: %v", err))
		}
	}
	return nil
}

// RecordForLine locates the record whose prompt spans the given rendered line
// and returns it together with the 0-based line offset within that prompt.
func (l *Log) RecordForLine(line int) (Record, int, error) {
	if line < 0 || line >= l.linenos.Size() {
		return Record{}, 0, fmt.Errorf("%w: line %d in transcript of %d lines", ErrIndexRange, line, l.linenos.Size())
	}
	i := l.linenos.FindChunk(line)
	first, err := l.linenos.First(i)
	if err != nil {
		panic(fmt.Sprintf("transcript: linenos desync on lookup: %v", err))
	}
	return l.records[i], line - first, nil
}

// PromptForLine returns the prompt fragment rendered in the margin of one
// screen row, or the empty string when the row has none.
func (l *Log) PromptForLine(line int) string {
	rec, offset, err := l.RecordForLine(line)
	if err != nil {
		return ""
	}
	lines := strings.Split(rec.Prompt, "\n")
	if offset >= len(lines) {
		return ""
	}
	return lines[offset]
}

func (l *Log) checkIndex(i int) (int, error) {
	n := len(l.records)
	if i < -n || i >= n {
		return 0, fmt.Errorf("%w: index %d in log of length %d", ErrIndexRange, i, n)
	}
	if i < 0 {
		i += n
	}
	return i, nil
}

// checkSync asserts the lockstep invariant after every mutation.
func (l *Log) checkSync() {
	if len(l.records) != l.linenos.Len() || len(l.records) != l.positions.Len() {
		panic(fmt.Sprintf("transcript: log containers out of sync: %d records, %d lineno chunks, %d position chunks",
			len(l.records), l.linenos.Len(), l.positions.Len()))
	}
}
