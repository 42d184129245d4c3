package revision

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Rand is the randomness a Sampler needs. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// globalRand uses the goroutine-safe top-level math/rand/v2 functions.
type globalRand struct{}

func (globalRand) Float64() float64                   { return rand.Float64() }
func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Sampler draws revision sessions from a deck's cards. It holds no state
// between calls beyond its random source.
type Sampler struct {
	rnd Rand
}

// NewSampler returns a Sampler drawing from rnd, or from the shared
// math/rand/v2 source when rnd is nil. A *rand.Rand is not safe for
// concurrent use, so only pass one when the Sampler is not shared.
func NewSampler(rnd Rand) *Sampler {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Sampler{rnd: rnd}
}

// Select picks at most n distinct cards, each card's chance of inclusion
// growing with its revision weight.
//
// This is the Efraimidis-Spirakis A-ES scheme: every card gets the key
// u^(1/w) for a uniform u, and the n largest keys win. Keys are compared in
// log space, ln(u)/w, which orders identically and does not underflow for
// large weights.
func (s *Sampler) Select(cards []domain.Card, n int) []domain.Card {
	if n <= 0 || len(cards) == 0 {
		return nil
	}

	type keyed struct {
		card domain.Card
		key  float64
	}
	ks := make([]keyed, len(cards))
	for i, c := range cards {
		// 1-Float64 is in (0, 1], keeping the log finite.
		u := 1 - s.rnd.Float64()
		ks[i] = keyed{card: c, key: math.Log(u) / float64(ClampWeight(c.RevisionWeight))}
	}
	slices.SortFunc(ks, func(a, b keyed) int {
		switch {
		case a.key > b.key:
			return -1
		case a.key < b.key:
			return 1
		}
		return 0
	})

	n = min(n, len(ks))
	out := make([]domain.Card, n)
	for i := range n {
		out[i] = ks[i].card
	}
	return out
}

// Build draws a session of at most length cards, shuffles the draw so the
// position reveals nothing about the weights, and shapes each card for the
// deck's flip mode.
func (s *Sampler) Build(cards []domain.Card, length int, mode domain.FlipMode) []domain.RevisionCard {
	chosen := s.Select(cards, length)
	s.rnd.Shuffle(len(chosen), func(i, j int) {
		chosen[i], chosen[j] = chosen[j], chosen[i]
	})

	out := make([]domain.RevisionCard, 0, len(chosen))
	for _, c := range chosen {
		out = append(out, s.shape(c, mode))
	}
	return out
}

func (s *Sampler) shape(c domain.Card, mode domain.FlipMode) domain.RevisionCard {
	rc := domain.RevisionCard{ID: c.ID, DeckID: c.DeckID, First: c.Front, Second: c.Back}
	backFirst := mode == domain.FlipBack || (mode == domain.FlipBoth && s.rnd.IntN(2) == 1)
	if backFirst {
		rc.First, rc.Second = c.Back, c.Front
	}
	return rc
}
