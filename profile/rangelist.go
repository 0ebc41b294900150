package profile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var rangeListFormat = regexp.MustCompile(`^\{(\[\d+\.\.\d+\],?)+}$`)

// RangeList is an ordered list of non-overlapping resource ranges. The
// list is canonicalised lazily: ranges are sorted by begin and adjacent
// neighbours merged before any observation that depends on ordering.
type RangeList struct {
	ranges   []Range
	numItems int
	sorted   bool
	merged   bool
}

// NewRangeList creates a list holding the given ranges.
func NewRangeList(ranges ...Range) *RangeList {
	l := &RangeList{sorted: true, merged: true}
	for _, r := range ranges {
		l.Add(r)
	}
	return l
}

// ParseRangeList parses the serialised form produced by String,
// e.g. "{[0..4],[6..9]}". Input ranges need not be sorted.
func ParseRangeList(s string) (*RangeList, error) {
	if !rangeListFormat.MatchString(s) {
		return nil, errors.Errorf("invalid list of resource ranges: %q", s)
	}

	l := &RangeList{}
	body := s[strings.Index(s, "{")+1 : strings.LastIndex(s, "}")]
	for _, part := range strings.Split(body, ",") {
		begin, err := strconv.Atoi(part[strings.Index(part, "[")+1 : strings.Index(part, ".")])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing range %q", part)
		}
		end, err := strconv.Atoi(part[strings.LastIndex(part, ".")+1 : strings.Index(part, "]")])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing range %q", part)
		}
		if begin > end {
			return nil, errors.Errorf("invalid range [%d..%d]", begin, end)
		}
		l.Add(NewRange(begin, end))
	}
	return l, nil
}

// NumItems returns the number of resource indices in this list.
func (l *RangeList) NumItems() int {
	if l == nil {
		return 0
	}
	l.MergeRanges()
	return l.numItems
}

// Size returns the number of ranges in this list.
func (l *RangeList) Size() int {
	if l == nil {
		return 0
	}
	return len(l.ranges)
}

// Add appends a range to the list.
func (l *RangeList) Add(r Range) {
	l.ranges = append(l.ranges, r)
	l.numItems += r.NumItems()
	l.sorted = false
	l.merged = false
}

// AddAll adds every range of other to this list (set union). The
// argument is left untouched.
func (l *RangeList) AddAll(other *RangeList) {
	if other == nil || len(other.ranges) == 0 {
		return
	}
	// Subtracting first keeps the union free of overlaps.
	l.Remove(other)
	l.numItems += other.NumItems()
	l.ranges = append(l.ranges, other.ranges...)
	l.sorted = false
	l.merged = false
}

// Clear removes all ranges from the list.
func (l *RangeList) Clear() {
	l.ranges = l.ranges[:0]
	l.numItems = 0
	l.sorted = true
	l.merged = true
}

// Clone returns a copy of this list.
func (l *RangeList) Clone() *RangeList {
	if l == nil {
		return nil
	}
	l.sortRanges()
	clone := &RangeList{
		ranges:   append([]Range(nil), l.ranges...),
		numItems: l.numItems,
		sorted:   true,
		merged:   l.merged,
	}
	return clone
}

// MergeRanges canonicalises the list: overlapping and adjacent ranges
// are coalesced, e.g. {[3..5],[4..8],[9..20]} becomes {[3..20]}, and
// the item count is recomputed so overlaps are not counted twice.
// Idempotent.
func (l *RangeList) MergeRanges() {
	if l.merged {
		return
	}
	l.sortRanges()
	merged := l.ranges[:0]
	for _, r := range l.ranges {
		if len(merged) > 0 {
			cur := &merged[len(merged)-1]
			if r.begin <= cur.end+1 {
				if r.end > cur.end {
					cur.end = r.end
				}
				continue
			}
		}
		merged = append(merged, r)
	}
	l.ranges = merged
	l.numItems = 0
	for _, r := range l.ranges {
		l.numItems += r.NumItems()
	}
	l.merged = true
}

func (l *RangeList) sortRanges() {
	if !l.sorted {
		sort.Slice(l.ranges, func(i, j int) bool {
			return l.ranges[i].begin < l.ranges[j].begin
		})
		l.sorted = true
	}
}

// Ranges returns the ranges in canonical order. The returned slice is a
// copy; mutating it does not affect the list.
func (l *RangeList) Ranges() []Range {
	if l == nil {
		return nil
	}
	l.MergeRanges()
	return append([]Range(nil), l.ranges...)
}

// LowestItem returns the smallest index in the list, or -1 if empty.
func (l *RangeList) LowestItem() int {
	if l == nil || len(l.ranges) == 0 {
		return -1
	}
	l.sortRanges()
	return l.ranges[0].begin
}

// HighestItem returns the greatest index in the list, or -1 if empty.
func (l *RangeList) HighestItem() int {
	if l == nil || len(l.ranges) == 0 {
		return -1
	}
	// sorting alone is not enough: an overlapping range can hide the
	// greatest index in an earlier list element
	l.MergeRanges()
	return l.ranges[len(l.ranges)-1].end
}

// Intersection returns a new list with the indices common to both lists.
func (l *RangeList) Intersection(other *RangeList) *RangeList {
	out := NewRangeList()
	if l.NumItems() == 0 || other.NumItems() == 0 {
		return out
	}

	l.MergeRanges()
	other.MergeRanges()

	for _, rq := range l.ranges {
		for _, ru := range other.ranges {
			// rq ends before the remaining ranges of other start.
			if rq.end < ru.begin {
				break
			}
			// ru is entirely below rq.
			if ru.end < rq.begin {
				continue
			}
			if its, ok := rq.Intersection(ru); ok {
				out.Add(its)
			}
		}
	}
	return out
}

// Remove subtracts the given ranges from this list in place. Ranges are
// shrunk or split; a range that is fully consumed is dropped, and when a
// range is split the second fragment is inserted right after the original.
func (l *RangeList) Remove(other *RangeList) {
	if other == nil {
		return
	}
	l.MergeRanges()
	other.MergeRanges()

	i := 0
	for i < len(l.ranges) {
		rq := l.ranges[i]
		for _, ru := range other.ranges {
			if rq.end < ru.begin {
				break
			}
			if ru.end < rq.begin {
				continue
			}

			frags := rq.Difference(ru)
			if len(frags) == 0 {
				l.numItems -= rq.NumItems()
				l.ranges = append(l.ranges[:i], l.ranges[i+1:]...)
				i--
				break
			}

			kept := 0
			for _, f := range frags {
				kept += f.NumItems()
			}
			l.numItems -= rq.NumItems() - kept
			rq = frags[0]
			l.ranges[i] = rq

			if len(frags) > 1 {
				l.ranges = append(l.ranges, Range{})
				copy(l.ranges[i+2:], l.ranges[i+1:])
				l.ranges[i+1] = frags[1]
				i--
				break
			}
		}
		i++
	}

	l.sorted = false
	l.merged = false
	l.MergeRanges()
}

// SelectResources greedily picks the first reqRes indices in sort order.
// Returns nil if the list holds fewer than reqRes indices.
func (l *RangeList) SelectResources(reqRes int) *RangeList {
	if l.NumItems() < reqRes {
		return nil
	}

	l.MergeRanges()
	selected := NewRangeList()

	left := reqRes
	for _, r := range l.ranges {
		if r.NumItems() >= left {
			selected.Add(NewRange(r.begin, r.begin+left-1))
			break
		}
		selected.Add(r)
		left -= r.NumItems()
	}
	selected.sorted = true
	return selected
}

// Equals reports content equality: both lists cover the same indices.
func (l *RangeList) Equals(other *RangeList) bool {
	if l == other {
		return true
	}
	if l.NumItems() != other.NumItems() {
		return false
	}
	if l == nil || other == nil {
		return l.NumItems() == other.NumItems()
	}
	its := l.Intersection(other)
	return its.NumItems() == l.NumItems() && its.NumItems() == other.NumItems()
}

// Compare orders lists by (lowest item, highest item, number of items).
func (l *RangeList) Compare(other *RangeList) int {
	if c := compareInt(l.LowestItem(), other.LowestItem()); c != 0 {
		return c
	}
	if c := compareInt(l.HighestItem(), other.HighestItem()); c != 0 {
		return c
	}
	return compareInt(l.NumItems(), other.NumItems())
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (l *RangeList) String() string {
	if l == nil || len(l.ranges) == 0 {
		return "{[]}"
	}
	l.MergeRanges()
	var b strings.Builder
	b.WriteString("{")
	for i, r := range l.ranges {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(r.String())
	}
	b.WriteString("}")
	return b.String()
}
