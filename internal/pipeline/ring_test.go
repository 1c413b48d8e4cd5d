package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/testutil"
)

func sequence(from, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(from + i)
	}
	return out
}

func newTestRing(t *testing.T, length int) *Ring {
	t.Helper()
	r, err := NewRing(length)
	require.NoError(t, err)
	return r
}

func TestNewRing_InvalidLength(t *testing.T) {
	for _, length := range []int{0, -1} {
		r, err := NewRing(length)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, domain.ErrInvalidLength)
	}
}

func TestRing_ReadBeforeAnyWrite(t *testing.T) {
	r := newTestRing(t, 8)
	dst := filled(8)

	assert.Equal(t, 0, r.Read(dst))
	assert.False(t, r.Ready())
	for _, s := range dst {
		assert.Equal(t, sentinel, s, "Read must not touch dst before a window completes")
	}
}

func TestRing_PartialWindowIsNotPublished(t *testing.T) {
	r := newTestRing(t, 8)

	r.Write(sequence(0, 7))

	assert.Equal(t, 0, r.Read(make([]int16, 8)))
	assert.False(t, r.Ready())
}

func TestRing_ExactWindow(t *testing.T) {
	r := newTestRing(t, 8)
	data := sequence(100, 8)

	r.Write(data)

	dst := make([]int16, 8)
	require.Equal(t, 8, r.Read(dst))
	assert.Equal(t, data, dst)
	assert.True(t, r.Ready())
}

func TestRing_LatestWindowWins(t *testing.T) {
	r := newTestRing(t, 4)

	r.Write(sequence(0, 4))
	r.Write(sequence(50, 4))

	dst := make([]int16, 4)
	require.Equal(t, 4, r.Read(dst))
	assert.Equal(t, sequence(50, 4), dst)
}

func TestRing_SmallWritesAccumulate(t *testing.T) {
	r := newTestRing(t, 8)
	dst := make([]int16, 8)

	r.Write(sequence(0, 3))
	r.Write(sequence(3, 3))
	assert.Equal(t, 0, r.Read(dst))

	r.Write(sequence(6, 3))
	require.Equal(t, 8, r.Read(dst))
	assert.Equal(t, sequence(0, 8), dst)
}

// A write that runs past the end of a window publishes the window it completed,
// not the trailing samples. The spilled part becomes the start of the next window,
// so consecutive windows stay contiguous and no sample is dropped.
func TestRing_SpillKeepsLastCompletedWindow(t *testing.T) {
	r := newTestRing(t, 4)
	dst := make([]int16, 4)

	// 0..3 completes a window, 4..5 spill into the next one
	r.Write(sequence(0, 6))
	require.Equal(t, 4, r.Read(dst))
	assert.Equal(t, sequence(0, 4), dst)

	// finishing the spilled window publishes it
	r.Write(sequence(6, 2))
	require.Equal(t, 4, r.Read(dst))
	assert.Equal(t, sequence(4, 4), dst)
}

func TestRing_WriteLongerThanTwoWindows(t *testing.T) {
	r := newTestRing(t, 4)
	dst := make([]int16, 4)

	r.Write(sequence(0, 10))

	require.Equal(t, 4, r.Read(dst))
	assert.Equal(t, sequence(4, 4), dst)
}

func TestRing_ShortDestination(t *testing.T) {
	r := newTestRing(t, 8)
	r.Write(sequence(0, 8))

	assert.Equal(t, 0, r.Read(make([]int16, 7)))

	// a longer destination is fine, only the window is copied
	dst := filled(10)
	require.Equal(t, 8, r.Read(dst))
	assert.Equal(t, sequence(0, 8), dst[:8])
	assert.Equal(t, sentinel, dst[8])
}

func TestRing_Len(t *testing.T) {
	assert.Equal(t, 2048, newTestRing(t, 2048).Len())
}

func TestRing_ConcurrentReaderAlwaysGetsFullWindows(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	const (
		length = 64
		writes = 20000
	)
	r := newTestRing(t, length)

	var done atomic.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer done.Store(true)

		sizes := []int{1, 7, length, 3 * length, length/2 + 1, 2}
		chunk := make([]int16, 3*length)
		for i := 0; i < writes; i++ {
			size := sizes[i%len(sizes)]
			for j := range chunk[:size] {
				chunk[j] = int16(i)
			}
			r.Write(chunk[:size])
		}
	}()

	var reads, full, torn int
	seenFull := false
	dst := make([]int16, length)
	for !done.Load() {
		n := r.Read(dst)
		reads++
		switch n {
		case 0:
			require.False(t, seenFull, "read returned 0 after a window had been published")
		case length:
			seenFull = true
			full++
			if !nonDecreasing(dst) {
				torn++
			}
		default:
			require.Failf(t, "partial read", "got %d samples", n)
		}
	}
	wg.Wait()

	// with the writer gone the front is stable and holds whole writes in order
	require.Equal(t, length, r.Read(dst))
	assert.True(t, nonDecreasing(dst), "settled window out of order: %v", dst)

	// a reader racing a flip may see a window that mixes old and new samples
	t.Logf("%d reads, %d full, %d torn", reads, full, torn)
}

// nonDecreasing reports whether a window holds writes in the order they were made,
// given that each write carries a larger value than the one before.
func nonDecreasing(window []int16) bool {
	for i := 1; i < len(window); i++ {
		if window[i] < window[i-1] {
			return false
		}
	}
	return true
}

func BenchmarkRingWrite(b *testing.B) {
	r, err := NewRing(2048)
	require.NoError(b, err)
	data := make([]int16, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Write(data)
	}
}
