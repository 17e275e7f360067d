// Package leak allocates memory blocks that are never released.
package leak

// fill is written into every byte of a block so its pages are committed.
const fill = 'A'

// Tracker retains every block it allocates for the life of the process.
// It is not safe for concurrent use.
type Tracker struct {
	blockSize int
	blocks    [][]byte
	count     int
}

func NewTracker(blockSize int) *Tracker {
	return &Tracker{blockSize: blockSize}
}

// Add allocates one block, touches all of it and keeps it.
func (t *Tracker) Add() {
	block := make([]byte, t.blockSize)
	for i := range block {
		block[i] = fill
	}
	t.blocks = append(t.blocks, block)
	t.count++
}

func (t *Tracker) Count() int {
	return t.count
}

func (t *Tracker) BlockSize() int {
	return t.blockSize
}

// TotalBytes is Count() blocks of BlockSize() bytes.
func (t *Tracker) TotalBytes() uint64 {
	return uint64(t.count) * uint64(t.blockSize)
}
