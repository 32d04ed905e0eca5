package transcript

import (
	"errors"
	"strings"
	"testing"
)

func TestPartitionAppendGet(t *testing.T) {
	p := NewPartition()
	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
	p.Append(3)
	p.Append(0)
	p.Append(5)

	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
	if p.Size() != 8 {
		t.Errorf("Size() = %d, want 8", p.Size())
	}
	for i, want := range []int{3, 0, 5} {
		got, err := p.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) error: %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %d, want %d", i, got, want)
		}
	}

	// Negative indices count from the end
	got, err := p.Get(-1)
	if err != nil {
		t.Fatalf("Get(-1) error: %v", err)
	}
	if got != 5 {
		t.Errorf("Get(-1) = %d, want 5", got)
	}
}

func TestPartitionIndexErrors(t *testing.T) {
	p := NewPartition()

	if _, err := p.Get(0); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Get(0) on empty partition: err = %v, want ErrIndexRange", err)
	}

	p.Append(2)
	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := p.Get(1); return err }},
		{"get negative", func() error { _, err := p.Get(-2); return err }},
		{"set", func() error { return p.Set(5, 1) }},
		{"delete", func() error { return p.Delete(1) }},
		{"insert", func() error { return p.Insert(1, 1) }},
		{"first", func() error { _, err := p.First(1); return err }},
		{"last", func() error { _, err := p.Last(-2); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrIndexRange) {
				t.Fatalf("err = %v, want ErrIndexRange", err)
			}
			if !strings.Contains(err.Error(), "length 1") {
				t.Errorf("error %q does not name the container length", err)
			}
		})
	}
}

func TestPartitionSetShifts(t *testing.T) {
	p := NewPartition()
	p.Append(3)
	p.Append(2)
	p.Append(4)

	if err := p.Set(1, 7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := p.Get(1); got != 7 {
		t.Errorf("Get(1) = %d, want 7", got)
	}
	// chunk 2 keeps its size but moves by the delta
	if got, _ := p.Get(2); got != 4 {
		t.Errorf("Get(2) = %d, want 4", got)
	}
	if first, _ := p.First(2); first != 10 {
		t.Errorf("First(2) = %d, want 10", first)
	}
	if p.Size() != 14 {
		t.Errorf("Size() = %d, want 14", p.Size())
	}
}

func TestPartitionDelete(t *testing.T) {
	p := NewPartition()
	p.Append(3)
	p.Append(2)
	p.Append(4)

	if err := p.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	if first, _ := p.First(1); first != 3 {
		t.Errorf("First(1) = %d, want 3", first)
	}
	if p.Size() != 7 {
		t.Errorf("Size() = %d, want 7", p.Size())
	}
}

func TestPartitionInsertDeleteRoundTrip(t *testing.T) {
	p := NewPartition()
	p.Append(3)
	p.Append(2)
	p.Append(4)
	before := append([]int(nil), p.locs...)

	if err := p.Insert(1, 6); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, _ := p.Get(1); got != 6 {
		t.Fatalf("Get(1) after insert = %d, want 6", got)
	}
	if got, _ := p.Get(2); got != 2 {
		t.Fatalf("Get(2) after insert = %d, want 2", got)
	}
	if err := p.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(p.locs) != len(before) {
		t.Fatalf("locs length = %d, want %d", len(p.locs), len(before))
	}
	for i := range before {
		if p.locs[i] != before[i] {
			t.Fatalf("locs[%d] = %d, want %d (locs %v, want %v)", i, p.locs[i], before[i], p.locs, before)
		}
	}
}

func TestPartitionFindLoc(t *testing.T) {
	p := NewPartition()
	p.Append(1)
	p.Append(1)
	p.Append(0)

	tests := []struct {
		pos  int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
	}
	for _, tt := range tests {
		if got := p.FindLoc(tt.pos); got != tt.want {
			t.Errorf("FindLoc(%d) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestPartitionFindChunkProperty(t *testing.T) {
	p := NewPartition()
	for _, size := range []int{3, 0, 2, 5, 0, 1} {
		p.Append(size)
	}
	if err := p.Insert(2, 4); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := p.Delete(4); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := p.Set(0, 2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Every position must land in a chunk that actually contains it.
	for pos := 0; pos < p.Size(); pos++ {
		i := p.FindChunk(pos)
		first, err := p.First(i)
		if err != nil {
			t.Fatalf("First(%d): %v", i, err)
		}
		last, err := p.Last(i)
		if err != nil {
			t.Fatalf("Last(%d): %v", i, err)
		}
		if first > pos || pos > last+1 {
			t.Errorf("FindChunk(%d) = %d spans [%d, %d]", pos, i, first, last+1)
		}
	}
}
