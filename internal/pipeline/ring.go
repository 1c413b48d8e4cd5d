package pipeline

import (
	"sync/atomic"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
)

// Ring is a double buffer that hands the most recent complete window of samples
// from a single writer (the audio callback) to a single reader (the visualization timer)
// without either side blocking the other.
//
// One buffer is the front, a complete snapshot the reader copies from. The other is
// the back, which the writer fills. When the back is full the roles flip. Every slot is
// an atomic so the two sides never race on a sample, and all slots of a buffer are
// stored before the flag that makes it the front, so the reader never sees an
// under-filled front.
//
// The reader is not fenced against the writer. A Read that overlaps a flip, followed
// by enough writes to reach the buffer being copied, returns a window that mixes old
// and new samples. It is still a full-length read, and a Read that does not overlap
// a flip returns one consistent window.
type Ring struct {
	buffers   [2][]atomic.Int32
	maxLength int

	level   atomic.Int64 // fill level of the back buffer; written only by the writer
	flipped atomic.Bool  // false: buffer 1 is front, true: buffer 0 is front
	ready   atomic.Bool  // sticky once the first window completed
}

// NewRing allocates both buffers of the given length.
func NewRing(length int) (*Ring, error) {
	if length <= 0 {
		return nil, domain.NewValidationError("length", length, domain.ErrInvalidLength)
	}

	r := &Ring{maxLength: length}
	r.buffers[0] = make([]atomic.Int32, length)
	r.buffers[1] = make([]atomic.Int32, length)
	return r, nil
}

// Len returns the window length.
func (r *Ring) Len() int {
	return r.maxLength
}

// Ready reports whether a complete window has ever been published.
func (r *Ring) Ready() bool {
	return r.ready.Load()
}

// Read copies the front window into dst and returns its length.
// It returns 0 without copying if no window has completed yet or dst is too short.
func (r *Ring) Read(dst []int16) int {
	if !r.ready.Load() || len(dst) < r.maxLength {
		return 0
	}

	front := r.buffers[frontIndex(r.flipped.Load())]
	for i := range front {
		dst[i] = int16(front[i].Load())
	}
	return r.maxLength
}

// Write appends data to the back buffer.
// Each time the back fills up it becomes the front and the remainder spills into the
// other buffer, so after a write larger than a window the front holds the last
// window that was completed.
func (r *Ring) Write(data []int16) {
	level := int(r.level.Load())

	for len(data) > 0 {
		flipped := r.flipped.Load()
		back := r.buffers[1-frontIndex(flipped)]

		n := min(len(data), r.maxLength-level)
		for i, s := range data[:n] {
			back[level+i].Store(int32(s))
		}
		data = data[n:]
		level += n

		if level == r.maxLength {
			r.flipped.Store(!flipped)
			r.ready.Store(true)
			level = 0
		}
	}

	r.level.Store(int64(level))
}

func frontIndex(flipped bool) int {
	if flipped {
		return 0
	}
	return 1
}
