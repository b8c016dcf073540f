// Package fitness orders and summarizes fitness scores.
package fitness

import (
	"cmp"
	"fmt"
	"strings"
)

// Direction tells which end of the fitness scale is better.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower"
	}
	return "higher"
}

// ParseDirection accepts "higher"/"desc"/"" and "lower"/"asc".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "higher", "desc", "descending", "max":
		return HigherIsBetter, nil
	case "lower", "asc", "ascending", "min":
		return LowerIsBetter, nil
	default:
		return HigherIsBetter, fmt.Errorf("unsupported fitness direction: %q", s)
	}
}

// Comparator is a total order over fitness values. Compare returns a
// negative number when a is better than b, a positive number when a is worse
// and zero when both are equivalent.
type Comparator interface {
	Compare(a, b float64) int
}

// DirectionComparator is the default comparator family.
type DirectionComparator struct {
	Direction Direction
}

func NewComparator(direction Direction) DirectionComparator {
	return DirectionComparator{Direction: direction}
}

func (c DirectionComparator) Compare(a, b float64) int {
	if c.Direction == LowerIsBetter {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(b, a)
}

// ComparatorFunc adapts a plain function to Comparator.
type ComparatorFunc func(a, b float64) int

func (f ComparatorFunc) Compare(a, b float64) int {
	return f(a, b)
}

// Better reports whether a is strictly better than b under c.
func Better(c Comparator, a, b float64) bool {
	return c.Compare(a, b) < 0
}
