// Package transcript provides the data structures behind a console transcript:
// an ordered log of records kept addressable both by rendered line number and
// by character position while the transcript grows and shrinks.
package transcript

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIndexRange indicates a chunk or record index outside the container.
var ErrIndexRange = errors.New("index out of range")

// Partition is an offset-indexed sequence of chunk sizes. It stores cumulative
// offsets rather than the sizes themselves, so finding the chunk that contains
// an absolute position is a binary search, at the price of resizing a chunk
// shifting every offset after it.
//
// Invariant: locs[0] == 0 and locs is monotonically non-decreasing.
type Partition struct {
	locs []int
}

// NewPartition returns an empty partition.
func NewPartition() *Partition {
	return &Partition{locs: []int{0}}
}

// Len returns the number of chunks.
func (p *Partition) Len() int {
	return len(p.locs) - 1
}

// Size returns the combined size of all chunks.
func (p *Partition) Size() int {
	return p.locs[len(p.locs)-1]
}

// Get returns the size of chunk i. Negative indices count from the end.
func (p *Partition) Get(i int) (int, error) {
	i, err := p.checkIndex(i)
	if err != nil {
		return 0, err
	}
	return p.locs[i+1] - p.locs[i], nil
}

// Set resizes chunk i, shifting all subsequent offsets by the size delta.
func (p *Partition) Set(i, size int) error {
	i, err := p.checkIndex(i)
	if err != nil {
		return err
	}
	old := p.locs[i+1] - p.locs[i]
	p.shift(i+1, size-old)
	return nil
}

// Delete removes chunk i, shifting all subsequent offsets back by its size.
func (p *Partition) Delete(i int) error {
	i, err := p.checkIndex(i)
	if err != nil {
		return err
	}
	size := p.locs[i+1] - p.locs[i]
	p.locs = append(p.locs[:i+1], p.locs[i+2:]...)
	p.shift(i+1, -size)
	return nil
}

// Insert creates a new chunk of the given size immediately before chunk i.
func (p *Partition) Insert(i, size int) error {
	i, err := p.checkIndex(i)
	if err != nil {
		return err
	}
	// Duplicate the start offset of chunk i, creating a zero-size chunk
	// before it, then grow the new chunk.
	p.locs = append(p.locs, 0)
	copy(p.locs[i+1:], p.locs[i:])
	p.shift(i+1, size)
	return nil
}

// Append adds a chunk of the given size at the end.
func (p *Partition) Append(size int) {
	p.locs = append(p.locs, p.locs[len(p.locs)-1]+size)
}

// FindLoc returns the leftmost index i such that the start offset of chunk i
// is at or past pos. Callers that need "the chunk containing pos" should use
// FindChunk: at positions exactly equal to a chunk start the two differ by one.
func (p *Partition) FindLoc(pos int) int {
	return sort.SearchInts(p.locs, pos)
}

// FindChunk returns the index of the chunk that contains pos, skipping empty
// chunks that start there. pos must be in [0, Size()).
func (p *Partition) FindChunk(pos int) int {
	return sort.SearchInts(p.locs, pos+1) - 1
}

// First returns the starting absolute offset of chunk i.
func (p *Partition) First(i int) (int, error) {
	i, err := p.checkIndex(i)
	if err != nil {
		return 0, err
	}
	return p.locs[i], nil
}

// Last returns the inclusive ending absolute offset of chunk i.
func (p *Partition) Last(i int) (int, error) {
	i, err := p.checkIndex(i)
	if err != nil {
		return 0, err
	}
	return p.locs[i+1] - 1, nil
}

// checkIndex normalizes a possibly negative index and range-checks it.
func (p *Partition) checkIndex(i int) (int, error) {
	n := p.Len()
	if i < -n || i >= n {
		return 0, fmt.Errorf("%w: index %d in partition of length %d", ErrIndexRange, i, n)
	}
	if i < 0 {
		i += n
	}
	return i, nil
}

// shift adds delta to every offset from start onward.
func (p *Partition) shift(start, delta int) {
	for i := start; i < len(p.locs); i++ {
		p.locs[i] += delta
	}
}
