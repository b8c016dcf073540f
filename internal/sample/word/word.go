// Package word evolves random strings towards a target word, the classic
// hello-world problem for genetic algorithms.
package word

import (
	"errors"
	"fmt"
	"strings"

	"hybrid/internal/evo"
	"hybrid/internal/random"
)

// Alphabet lists the characters words are built from.
const Alphabet = "abcdefghijklmnopqrstuvwxyz "

var ErrInvalidTarget = errors.New("invalid target word")

func ValidateTarget(target string) error {
	if target == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	for i, r := range target {
		if !strings.ContainsRune(Alphabet, r) {
			return fmt.Errorf("%w: %q at offset %d is outside [a-z ]", ErrInvalidTarget, r, i)
		}
	}
	return nil
}

func randomLetter(rng random.Source, letters random.Range) byte {
	return Alphabet[random.Index(rng, int(letters.Delta()))]
}

// Factory creates random words of a fixed length.
type Factory struct {
	length  int
	letters random.Range
}

func NewFactory(length int) Factory {
	return Factory{length: length, letters: random.Span(float64(len(Alphabet)))}
}

func (f Factory) Create(rng random.Source, _ *evo.Population[string]) (string, bool, error) {
	if f.length <= 0 {
		return "", false, fmt.Errorf("%w: word length must be > 0", evo.ErrConfiguration)
	}
	buf := make([]byte, f.length)
	for i := range buf {
		buf[i] = randomLetter(rng, f.letters)
	}
	return string(buf), true, nil
}

// Evaluator scores a word by the number of positions matching the target.
type Evaluator struct {
	target string
}

func NewEvaluator(target string) Evaluator {
	return Evaluator{target: target}
}

func (e Evaluator) Evaluate(value string, _ *evo.Population[string]) float64 {
	n := min(len(value), len(e.target))
	score := 0
	for i := 0; i < n; i++ {
		if value[i] == e.target[i] {
			score++
		}
	}
	return float64(score)
}

// MaxFitness is the score of the target itself.
func (e Evaluator) MaxFitness() float64 {
	return float64(len(e.target))
}

// Crossover joins the head of the father and the tail of the mother at a
// random cut point.
type Crossover struct {
	points random.Range
}

func NewCrossover(length int) Crossover {
	return Crossover{points: random.Span(float64(length))}
}

func (c Crossover) Recombine(rng random.Source, mother, father string, _ *evo.Population[string]) (string, bool, error) {
	point := random.Index(rng, int(c.points.Delta()))
	point = min(point, len(father), len(mother))
	return father[:point] + mother[point:], true, nil
}

// Mutation replaces one random position with a random letter.
type Mutation struct {
	points  random.Range
	letters random.Range
}

func NewMutation(length int) Mutation {
	return Mutation{
		points:  random.Span(float64(length)),
		letters: random.Span(float64(len(Alphabet))),
	}
}

func (m Mutation) Mutate(rng random.Source, value string, _ *evo.Population[string]) (string, bool, error) {
	if value == "" {
		return "", false, nil
	}
	point := min(random.Index(rng, int(m.points.Delta())), len(value)-1)
	buf := []byte(value)
	buf[point] = randomLetter(rng, m.letters)
	return string(buf), true, nil
}

// Found stops the evolution once the best individual spells the target.
type Found struct {
	target string
}

func NewFound(target string) Found {
	return Found{target: target}
}

func (f Found) Interrupt(stats *evo.Statistics[string]) bool {
	if stats.Population == nil {
		return false
	}
	best := stats.Population.Best()
	return best != nil && best.Value == f.target
}

// Problem bundles the operators for one target word.
type Problem struct {
	Target    string
	Factory   Factory
	Evaluator Evaluator
	Crossover Crossover
	Mutation  Mutation
	Found     Found
}

func NewProblem(target string) (Problem, error) {
	if err := ValidateTarget(target); err != nil {
		return Problem{}, err
	}
	n := len(target)
	return Problem{
		Target:    target,
		Factory:   NewFactory(n),
		Evaluator: NewEvaluator(target),
		Crossover: NewCrossover(n),
		Mutation:  NewMutation(n),
		Found:     NewFound(target),
	}, nil
}
