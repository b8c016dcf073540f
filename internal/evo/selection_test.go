package evo

import (
	"errors"
	"testing"

	"hybrid/internal/random"
)

func selectValues(t *testing.T, sel Selection, p *Population[int], rng random.Source, n int) []int {
	t.Helper()
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx, err := sel.Select(rng, p)
		if err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		out = append(out, p.Individual(idx).Value)
	}
	return out
}

func TestUniformSelection(t *testing.T) {
	p := numberPopulation(t, 10)
	got := selectValues(t, UniformSelection{}, p, random.NewSequence(0, 4, 9), 3)
	if !equalInts(got, []int{0, 4, 9}) {
		t.Fatalf("unexpected picks: %v", got)
	}
}

func TestTournamentSelection(t *testing.T) {
	p := numberPopulation(t, 10)
	sel := NewTournamentSelection(0.3)
	if sel.Draws(10) != 3 {
		t.Fatalf("expected 3 draws, got %d", sel.Draws(10))
	}
	rng := random.NewSequence(2, 4, 3, 6, 4, 5, 8, 1, 9)
	got := selectValues(t, sel, p, rng, 3)
	if !equalInts(got, []int{4, 6, 9}) {
		t.Fatalf("unexpected picks: %v", got)
	}
}

func TestTournamentRateClamping(t *testing.T) {
	cases := []struct {
		rate float64
		want float64
	}{
		{rate: 0, want: DefaultTournamentRate},
		{rate: -1, want: DefaultTournamentRate},
		{rate: 2, want: 1},
		{rate: 0.5, want: 0.5},
	}
	for _, tc := range cases {
		if got := NewTournamentSelection(tc.rate).Rate(); got != tc.want {
			t.Fatalf("rate %v: got %v want %v", tc.rate, got, tc.want)
		}
	}
	if NewTournamentSelection(0.01).Draws(10) != 1 {
		t.Fatal("expected at least one draw")
	}
}

func TestRankingSelection(t *testing.T) {
	p := numberPopulation(t, 10)
	got := selectValues(t, RankingSelection{}, p, random.NewSequence(36, 16, 7, 44), 4)
	if !equalInts(got, []int{4, 8, 9, 1}) {
		t.Fatalf("unexpected picks: %v", got)
	}
}

func TestRankingSelectionFallsBackToBest(t *testing.T) {
	p := numberPopulation(t, 4)
	got := selectValues(t, RankingSelection{}, p, random.NewSequence(1000), 1)
	if got[0] != 3 {
		t.Fatalf("expected fallback to best, got %d", got[0])
	}
}

func TestSelectionEmptyPool(t *testing.T) {
	p, err := NewPopulation(Options[int]{})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	for _, sel := range []Selection{UniformSelection{}, NewTournamentSelection(0.5), RankingSelection{}} {
		if _, err := sel.Select(random.NewRandomizer(1), p); !errors.Is(err, ErrEmptyPopulation) {
			t.Fatalf("%s: expected ErrEmptyPopulation, got %v", sel.Name(), err)
		}
	}
}
