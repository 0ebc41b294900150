package profile

import "fmt"

// Range is a closed interval [begin, end] of resource indices. It is used
// by allocation policies to keep track of the resources available at a
// particular time and of the resources assigned to work units.
type Range struct {
	begin int
	end   int
}

// NewRange creates a range spanning [begin, end]. A range always contains
// at least one index, so begin must not exceed end.
func NewRange(begin, end int) Range {
	if begin > end {
		panic(fmt.Sprintf("profile: invalid range [%d..%d]", begin, end))
	}
	return Range{begin: begin, end: end}
}

// Begin returns the first index in the range.
func (r Range) Begin() int {
	return r.begin
}

// End returns the last index in the range.
func (r Range) End() int {
	return r.end
}

// NumItems returns the number of indices in the range.
func (r Range) NumItems() int {
	return (r.end - r.begin) + 1
}

// Intersection returns the overlap between the two ranges. The second
// return value is false when the ranges are disjoint.
func (r Range) Intersection(other Range) (Range, bool) {
	s := r.begin
	if other.begin > s {
		s = other.begin
	}
	e := r.end
	if other.end < e {
		e = other.end
	}
	if s > e {
		return Range{}, false
	}
	return Range{begin: s, end: e}, true
}

// Intersects reports whether the two ranges have any index in common.
func (r Range) Intersects(other Range) bool {
	_, ok := r.Intersection(other)
	return ok
}

// Difference returns the fragments left after subtracting other from this
// range: zero, one or two sub-ranges. A nil result means the range was
// fully consumed.
func (r Range) Difference(other Range) []Range {
	if other.end < r.begin || other.begin > r.end {
		return []Range{r}
	}

	var frags []Range
	if other.begin > r.begin {
		frags = append(frags, Range{begin: r.begin, end: other.begin - 1})
	}
	if other.end < r.end {
		frags = append(frags, Range{begin: other.end + 1, end: r.end})
	}
	return frags
}

func (r Range) String() string {
	return fmt.Sprintf("[%d..%d]", r.begin, r.end)
}
