package grid

import (
	"fmt"

	"socialcost/domain/core"
)

// TimeGrid is an immutable, strictly increasing set of calendar years a
// model is simulated at. Grids are typically irregular: decadal near the
// present, multi-decadal toward the horizon.
type TimeGrid struct {
	years []int
}

// GridPoint is the result of resolving a calendar year against a grid.
// For an exact hit Index is the grid index and Frac is 0. Otherwise Lower
// and Upper are the bracketing indices and Frac is the linear position of
// the year inside that segment. Years outside the grid range resolve to
// the first or last segment with Frac < 0 or Frac > 1.
type GridPoint struct {
	Exact bool
	Index int
	Lower int
	Upper int
	Frac  float64
}

// NewTimeGrid validates and constructs a grid from calendar years.
func NewTimeGrid(years []int) (TimeGrid, error) {
	if len(years) < 2 {
		return TimeGrid{}, fmt.Errorf("%w: need at least two grid years, got %d", core.ErrInvalidGrid, len(years))
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return TimeGrid{}, fmt.Errorf("%w: years must be strictly increasing at index %d (%d >= %d)",
				core.ErrInvalidGrid, i, years[i-1], years[i])
		}
	}
	owned := make([]int, len(years))
	copy(owned, years)
	return TimeGrid{years: owned}, nil
}

// Len returns the number of grid points.
func (g TimeGrid) Len() int { return len(g.years) }

// Years returns a copy of the grid years.
func (g TimeGrid) Years() []int {
	out := make([]int, len(g.years))
	copy(out, g.years)
	return out
}

// Year returns the calendar year at a grid index.
func (g TimeGrid) Year(i int) int { return g.years[i] }

// First returns the earliest grid year.
func (g TimeGrid) First() int { return g.years[0] }

// Last returns the latest grid year.
func (g TimeGrid) Last() int { return g.years[len(g.years)-1] }

// Contains reports whether a year lies inside the grid's range.
func (g TimeGrid) Contains(year int) bool {
	return len(g.years) > 0 && year >= g.First() && year <= g.Last()
}

// Resolve maps a calendar year onto the grid.
func (g TimeGrid) Resolve(year int) (GridPoint, error) {
	if len(g.years) == 0 {
		return GridPoint{}, fmt.Errorf("%w: empty grid", core.ErrInvalidYear)
	}
	for i, y := range g.years {
		if y == year {
			return GridPoint{Exact: true, Index: i, Lower: i, Upper: i}, nil
		}
	}
	// Bracketing segment; out-of-range years use the boundary segment so
	// Frac encodes the extrapolation coordinate.
	lo, hi := 0, 1
	for i := 1; i < len(g.years); i++ {
		lo, hi = i-1, i
		if year < g.years[i] {
			break
		}
	}
	frac := float64(year-g.years[lo]) / float64(g.years[hi]-g.years[lo])
	return GridPoint{Lower: lo, Upper: hi, Frac: frac}, nil
}

// PeriodLength returns the width in years represented by the grid point
// nearest below or at the given year: half the distance between its
// neighbouring grid points. The first point uses the first inter-point
// spacing and the last point the final spacing, so every point has a
// positive width.
func (g TimeGrid) PeriodLength(year int) (float64, error) {
	pt, err := g.Resolve(year)
	if err != nil {
		return 0, err
	}
	idx := pt.Index
	if !pt.Exact {
		idx = pt.Lower
	}
	return g.periodLengthAt(idx), nil
}

func (g TimeGrid) periodLengthAt(i int) float64 {
	switch {
	case i <= 0:
		return float64(g.years[1] - g.years[0])
	case i >= len(g.years)-1:
		return float64(g.years[len(g.years)-1] - g.years[len(g.years)-2])
	default:
		return float64(g.years[i+1]-g.years[i-1]) / 2.0
	}
}

// Interpolate evaluates a grid-aligned series at an arbitrary calendar
// year: linear interpolation inside the grid range and linear
// extrapolation outside it. Extrapolation is deliberate policy; callers
// that need a hard range check use Contains first.
func (g TimeGrid) Interpolate(series []float64, year int) (float64, error) {
	if len(series) != len(g.years) {
		return 0, fmt.Errorf("%w: series length %d does not match grid length %d",
			core.ErrInterpolation, len(series), len(g.years))
	}
	pt, err := g.Resolve(year)
	if err != nil {
		return 0, err
	}
	if pt.Exact {
		return series[pt.Index], nil
	}
	lo, hi := series[pt.Lower], series[pt.Upper]
	return lo + (hi-lo)*pt.Frac, nil
}
