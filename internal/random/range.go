package random

// Range is a half-open numeric interval [Start, End).
type Range struct {
	Start float64
	End   float64
}

// NewRange builds a range, swapping the bounds when start > end.
func NewRange(start, end float64) Range {
	if start > end {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// Span returns the range [0, n), or [n, 0) for negative n.
func Span(n float64) Range {
	return NewRange(0, n)
}

func (r Range) Delta() float64 {
	return r.End - r.Start
}

// Contains reports whether num lies inside the closed interval [Start, End].
func (r Range) Contains(num float64) bool {
	return num >= r.Start && num <= r.End
}
