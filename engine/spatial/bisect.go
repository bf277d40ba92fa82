package spatial

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/common"
)

// ErrInvalidSubdivision is returned when a subdivision count is not a positive power of two.
var ErrInvalidSubdivision = errors.New("subdivision count must be a positive power of two")

// ErrDegenerateAxis is returned when an axis range is empty or too narrow to split.
var ErrDegenerateAxis = errors.New("axis range cannot be subdivided")

// Bisect splits [min, max] into n equal intervals by repeated midpoint insertion and returns
// the n+1 boundaries. The first and last entries are exactly min and max and the sequence is
// strictly increasing.
//
// Parameters:
//   - min: the lower bound of the axis
//   - max: the upper bound of the axis, must be greater than min
//   - n: the number of intervals, a positive power of two
//
// Returns:
//   - []float32: the n+1 interval boundaries
//   - error: ErrInvalidSubdivision or ErrDegenerateAxis when the inputs cannot be split
func Bisect(min, max float32, n int) ([]float32, error) {
	if !common.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSubdivision, n)
	}
	if !(max > min) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrDegenerateAxis, min, max)
	}

	bounds := []float32{min, max}
	for len(bounds)-1 < n {
		next := make([]float32, 0, 2*len(bounds)-1)
		for i := 0; i < len(bounds)-1; i++ {
			a, b := bounds[i], bounds[i+1]
			mid := float32((float64(a) + float64(b)) / 2)
			if !(mid > a && mid < b) {
				return nil, fmt.Errorf("%w: [%v, %v] collapses at depth %d", ErrDegenerateAxis, min, max, len(bounds)-1)
			}
			next = append(next, a, mid)
		}
		bounds = append(next, bounds[len(bounds)-1])
	}
	return bounds, nil
}

// locate finds the interval k with bounds[k] <= v < bounds[k+1]. A value equal to the last
// bound belongs to the last interval. Values outside the range are clamped to the nearest
// edge interval and reported.
func locate(bounds []float32, v float32) (k int, clamped bool) {
	last := len(bounds) - 2
	switch {
	case v < bounds[0]:
		return 0, true
	case v > bounds[last+1]:
		return last, true
	case v == bounds[last+1]:
		return last, false
	}
	lo, hi := 0, last
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if bounds[mid] <= v {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, false
}
