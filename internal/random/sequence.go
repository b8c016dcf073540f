package random

// Sequence replays a fixed list of values and falls back to another source
// once the list is exhausted. Replayed values are returned verbatim by both
// Float64 and Between, which makes selection and reproduction deterministic
// in tests.
type Sequence struct {
	values   []float64
	next     int
	fallback Source
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{
		values:   append([]float64(nil), values...),
		fallback: NewRandomizer(1),
	}
}

// Reset replaces the replay list and rewinds it.
func (s *Sequence) Reset(values ...float64) {
	s.values = append([]float64(nil), values...)
	s.next = 0
}

// Remaining returns how many replay values are left.
func (s *Sequence) Remaining() int {
	return len(s.values) - s.next
}

func (s *Sequence) Float64() float64 {
	if v, ok := s.pop(); ok {
		return v
	}
	return s.fallback.Float64()
}

func (s *Sequence) Between(r Range) float64 {
	if v, ok := s.pop(); ok {
		return v
	}
	return s.fallback.Between(r)
}

func (s *Sequence) Probability(p float64) bool {
	return s.Float64() < p
}

func (s *Sequence) pop() (float64, bool) {
	if s.next >= len(s.values) {
		return 0, false
	}
	v := s.values[s.next]
	s.next++
	return v, true
}
