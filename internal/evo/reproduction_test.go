package evo

import (
	"testing"

	"hybrid/internal/random"
)

func TestCrossoverProbabilityClamp(t *testing.T) {
	cases := map[float64]float64{0: 0.01, -3: 0.01, 0.5: 0.5, 2: 1}
	for in, want := range cases {
		if got := NewCrossover[int](in, nil).Probability(); got != want {
			t.Fatalf("crossover(%v): got %v want %v", in, got, want)
		}
	}
}

func TestMutationProbabilityClamp(t *testing.T) {
	cases := map[float64]float64{0: 0, -1: 0, 0.25: 0.25, 2: 1}
	for in, want := range cases {
		if got := NewMutation[int](in, nil).Probability(); got != want {
			t.Fatalf("mutation(%v): got %v want %v", in, got, want)
		}
	}
}

func TestDefaultOperatorsProduceNothing(t *testing.T) {
	rng := random.NewRandomizer(1)
	if _, ok, err := NewCrossover[int](1, nil).Execute(rng, 1, 2, nil); ok || err != nil {
		t.Fatalf("expected no child, ok=%v err=%v", ok, err)
	}
	if _, ok, err := NewMutation[int](1, nil).Execute(rng, 1, nil); ok || err != nil {
		t.Fatalf("expected no mutation, ok=%v err=%v", ok, err)
	}
}

func TestCrossoverDelegatesOnSuccessfulRoll(t *testing.T) {
	p := numberPopulation(t, 2)
	var gotMother, gotFather int
	var gotPop *Population[int]
	c := NewCrossover[int](0.5, RecombinerFunc[int](func(_ random.Source, mother, father int, pop *Population[int]) (int, bool, error) {
		gotMother, gotFather, gotPop = mother, father, pop
		return mother + father, true, nil
	}))

	child, ok, err := c.Execute(random.NewSequence(0.2), 1, 2, p)
	if err != nil || !ok || child != 3 {
		t.Fatalf("unexpected crossover result child=%d ok=%v err=%v", child, ok, err)
	}
	if gotMother != 1 || gotFather != 2 || gotPop != p {
		t.Fatal("recombiner received unexpected arguments")
	}

	if _, ok, _ := c.Execute(random.NewSequence(0.9), 1, 2, p); ok {
		t.Fatal("expected failed roll to skip the recombiner")
	}
}

func TestMutationDelegatesOnSuccessfulRoll(t *testing.T) {
	m := NewMutation[int](1, MutatorFunc[int](func(_ random.Source, v int, _ *Population[int]) (int, bool, error) {
		return -v, true, nil
	}))
	got, ok, err := m.Execute(random.NewSequence(0.3), 4, nil)
	if err != nil || !ok || got != -4 {
		t.Fatalf("unexpected mutation result got=%d ok=%v err=%v", got, ok, err)
	}

	never := NewMutation[int](0, MutatorFunc[int](func(random.Source, int, *Population[int]) (int, bool, error) {
		t.Fatal("mutator called with zero probability")
		return 0, false, nil
	}))
	if _, ok, _ := never.Execute(random.NewSequence(0), 4, nil); ok {
		t.Fatal("expected no mutation with zero probability")
	}
}
