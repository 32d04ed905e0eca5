package transcript

import (
	"errors"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{Domain: DomainInput, Prompt: "IN [0]: \n", Text: "1+1\n"},
		{Domain: DomainOutput, Prompt: "OUT[0]: ", Text: "2"},
		{Domain: DomainControl, Prompt: "\n", Text: "\n"},
		{Domain: DomainInput, Prompt: "IN [1]: \n", Text: "print('x')\n"},
		{Domain: DomainStdout, Prompt: "\n", Text: "x\n"},
	}
}

// checkPrefixSums verifies the lockstep property: each partition's chunk start
// equals the running sum of the records before it.
func checkPrefixSums(t *testing.T, l *Log) {
	t.Helper()
	sumLines, sumChars := 0, 0
	for i := 0; i < l.Len(); i++ {
		rec, err := l.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		firstLine, err := l.Linenos().First(i)
		if err != nil {
			t.Fatalf("Linenos().First(%d): %v", i, err)
		}
		if firstLine != sumLines {
			t.Errorf("Linenos().First(%d) = %d, want %d", i, firstLine, sumLines)
		}
		firstPos, err := l.Positions().First(i)
		if err != nil {
			t.Fatalf("Positions().First(%d): %v", i, err)
		}
		if firstPos != sumChars {
			t.Errorf("Positions().First(%d) = %d, want %d", i, firstPos, sumChars)
		}
		sumLines += rec.NumLines()
		sumChars += len(rec.Text)
	}
}

func TestLogLockstepUnderMutation(t *testing.T) {
	l := NewLog()
	for _, rec := range sampleRecords() {
		l.Append(rec)
		checkPrefixSums(t, l)
	}

	if err := l.Insert(1, Record{Domain: DomainStdout, Prompt: "\n\n", Text: "a\nb"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	checkPrefixSums(t, l)

	if err := l.Set(0, Record{Domain: DomainInput, Prompt: "IN [0]: \n", Text: "2*3\n"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	checkPrefixSums(t, l)

	if err := l.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	checkPrefixSums(t, l)

	if err := l.DeleteRange(1, 3); err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	checkPrefixSums(t, l)
}

func TestLogPromptLineChunks(t *testing.T) {
	l := NewLog()
	l.Append(Record{Domain: DomainInput, Prompt: "IN[0]: \n", Text: ""})
	l.Append(Record{Domain: DomainInput, Prompt: "...: \n", Text: ""})
	l.Append(Record{Domain: DomainOutput, Prompt: "OUT[0]: ", Text: "7"})

	want := []int{1, 1, 0}
	for i, w := range want {
		got, err := l.Linenos().Get(i)
		if err != nil {
			t.Fatalf("Linenos().Get(%d): %v", i, err)
		}
		if got != w {
			t.Errorf("Linenos().Get(%d) = %d, want %d", i, got, w)
		}
	}
	if got := l.Linenos().FindLoc(0); got != 0 {
		t.Errorf("FindLoc(0) = %d, want 0", got)
	}

	rec, offset, err := l.RecordForLine(0)
	if err != nil {
		t.Fatalf("RecordForLine(0): %v", err)
	}
	if rec.Prompt != "IN[0]: \n" || offset != 0 {
		t.Errorf("RecordForLine(0) = %q offset %d, want IN prompt offset 0", rec.Prompt, offset)
	}

	rec, offset, err = l.RecordForLine(1)
	if err != nil {
		t.Fatalf("RecordForLine(1): %v", err)
	}
	if rec.Prompt != "...: \n" || offset != 0 {
		t.Errorf("RecordForLine(1) = %q offset %d, want continuation prompt offset 0", rec.Prompt, offset)
	}
}

func TestRecordForLineMultiLinePrompt(t *testing.T) {
	l := NewLog()
	l.Append(Record{Domain: DomainInput, Prompt: "IN [0]: \n...: \n...: \n", Text: ""})
	l.Append(Record{Domain: DomainStdout, Prompt: "\n", Text: "done\n"})

	for line, want := range map[int]string{
		0: "IN [0]: ",
		1: "...: ",
		2: "...: ",
		3: "",
	} {
		if got := l.PromptForLine(line); got != want {
			t.Errorf("PromptForLine(%d) = %q, want %q", line, got, want)
		}
	}

	_, _, err := l.RecordForLine(4)
	if !errors.Is(err, ErrIndexRange) {
		t.Errorf("RecordForLine(4): err = %v, want ErrIndexRange", err)
	}
}

func TestLogDeleteRangeNegativeBounds(t *testing.T) {
	newLog3 := func() *Log {
		l := NewLog()
		l.Append(Record{Domain: DomainInput, Prompt: "IN [0]: \n", Text: "a\n"})
		l.Append(Record{Domain: DomainOutput, Prompt: "OUT[0]: ", Text: "1"})
		l.Append(Record{Domain: DomainStdout, Prompt: "\n", Text: "x\n"})
		return l
	}

	// negative start counts from the end, same as every other index here
	l := newLog3()
	if err := l.DeleteRange(-2, 3); err != nil {
		t.Fatalf("DeleteRange(-2, 3): %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	rec, _ := l.Last()
	if rec.Domain != DomainInput {
		t.Errorf("surviving record = %+v, want the leading input record", rec)
	}
	checkPrefixSums(t, l)

	// negative end is exclusive, counted from the end
	l = newLog3()
	if err := l.DeleteRange(0, -1); err != nil {
		t.Fatalf("DeleteRange(0, -1): %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if rec, _ := l.Last(); rec.Domain != DomainStdout {
		t.Errorf("surviving record = %+v, want the trailing stdout record", rec)
	}
	checkPrefixSums(t, l)

	// an inverted or oversized range is rejected without touching the log
	l = newLog3()
	if err := l.DeleteRange(2, 1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("DeleteRange(2, 1): err = %v, want ErrIndexRange", err)
	}
	if err := l.DeleteRange(1, 5); !errors.Is(err, ErrIndexRange) {
		t.Errorf("DeleteRange(1, 5): err = %v, want ErrIndexRange", err)
	}
	if l.Len() != 3 {
		t.Errorf("Len() after rejected ranges = %d, want 3", l.Len())
	}

	// empty range is a no-op
	if err := l.DeleteRange(1, 1); err != nil {
		t.Errorf("DeleteRange(1, 1): %v", err)
	}
	if l.Len() != 3 {
		t.Errorf("Len() after empty range = %d, want 3", l.Len())
	}
}

func TestLogNegativeAndOutOfRange(t *testing.T) {
	l := NewLog()
	l.Append(Record{Domain: DomainInput, Prompt: "IN [0]: \n", Text: "x\n"})

	rec, err := l.At(-1)
	if err != nil {
		t.Fatalf("At(-1): %v", err)
	}
	if rec.Domain != DomainInput {
		t.Errorf("At(-1).Domain = %q, want IN", rec.Domain)
	}

	if _, err := l.At(1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("At(1): err = %v, want ErrIndexRange", err)
	}
	if err := l.Set(3, Record{}); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Set(3): err = %v, want ErrIndexRange", err)
	}
	if err := l.Delete(-2); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Delete(-2): err = %v, want ErrIndexRange", err)
	}
	if err := l.DeleteRange(0, 2); !errors.Is(err, ErrIndexRange) {
		t.Errorf("DeleteRange(0, 2): err = %v, want ErrIndexRange", err)
	}
}

func TestLogLastAndLen(t *testing.T) {
	l := NewLog()
	if _, ok := l.Last(); ok {
		t.Error("Last() on empty log reported a record")
	}
	for _, rec := range sampleRecords() {
		l.Append(rec)
	}
	if l.Len() != 5 {
		t.Errorf("Len() = %d, want 5", l.Len())
	}
	last, ok := l.Last()
	if !ok || last.Domain != DomainStdout {
		t.Errorf("Last() = %+v ok=%v, want trailing STDOUT record", last, ok)
	}
}
