package service

import (
	"math/rand/v2"
	"slices"
)

const (
	// MaxSuggestions bounds the list returned to visitors.
	MaxSuggestions = 6
	// SampledSuggestions is how many candidates join the fixed questions.
	SampledSuggestions = 3
)

// Suggester returns starter questions: the fixed ones in order, then a
// random sample of the candidates.
type Suggester struct {
	fixed      []string
	candidates []string
	shuffle    func(n int, swap func(i, j int))
}

func NewSuggester(fixed, candidates []string) *Suggester {
	return &Suggester{
		fixed:      slices.Clone(fixed),
		candidates: slices.Clone(candidates),
		shuffle:    rand.Shuffle,
	}
}

// Suggest returns at most MaxSuggestions questions. Each call samples anew.
func (s *Suggester) Suggest() []string {
	pool := slices.Clone(s.candidates)
	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]string, 0, MaxSuggestions)
	out = append(out, s.fixed...)
	out = append(out, pool[:min(SampledSuggestions, len(pool))]...)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
