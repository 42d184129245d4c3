package revision

import (
	"math/rand/v2"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func seeded(seed uint64) *Sampler {
	return NewSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func makeDeck(weights ...int) []domain.Card {
	cards := make([]domain.Card, len(weights))
	for i, w := range weights {
		cards[i] = domain.Card{
			ID:             int64(i + 1),
			DeckID:         7,
			Front:          "front " + string(rune('A'+i)),
			Back:           "back " + string(rune('A'+i)),
			RevisionWeight: w,
		}
	}
	return cards
}

func TestSelectBoundsAndDistinct(t *testing.T) {
	s := seeded(1)
	testCases := []struct {
		name  string
		cards []domain.Card
		n     int
		want  int
	}{
		{"fewer cards than length", makeDeck(1, 5, 9), 10, 3},
		{"more cards than length", makeDeck(1, 1, 1, 1, 1, 1, 1, 1), 5, 5},
		{"exact", makeDeck(3, 3, 3, 3, 3), 5, 5},
		{"empty deck", nil, 5, 0},
		{"zero length", makeDeck(1, 2), 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for range 50 {
				got := s.Select(tc.cards, tc.n)
				if len(got) != tc.want {
					t.Fatalf("Expected %d cards, but got %d", tc.want, len(got))
				}
				seen := make(map[int64]bool)
				for _, c := range got {
					if seen[c.ID] {
						t.Fatalf("Card %d selected twice", c.ID)
					}
					seen[c.ID] = true
				}
			}
		})
	}
}

func TestSelectFavoursHeavyCards(t *testing.T) {
	s := seeded(2)
	weights := make([]int, 20)
	for i := range weights {
		weights[i] = 1
	}
	weights[13] = 32767
	cards := makeDeck(weights...)

	counts := make(map[int64]int)
	const trials = 2000
	for range trials {
		for _, c := range s.Select(cards, 3) {
			counts[c.ID]++
		}
	}

	heavy := counts[14]
	if heavy < trials*99/100 {
		t.Errorf("Expected heavy card in nearly every draw, but got %d/%d", heavy, trials)
	}
	for id, n := range counts {
		if id != 14 && n >= heavy/2 {
			t.Errorf("Weight-1 card %d drawn %d times, heavy card only %d", id, n, heavy)
		}
	}
}

func TestSelectInclusionMonotonicInWeight(t *testing.T) {
	s := seeded(3)
	cards := makeDeck(1, 4, 16, 64, 256, 1, 1, 1, 1, 1)
	counts := make(map[int64]int)
	for range 5000 {
		for _, c := range s.Select(cards, 3) {
			counts[c.ID]++
		}
	}
	for id := int64(1); id < 5; id++ {
		if counts[id] >= counts[id+1] {
			t.Errorf("Expected card %d (weight %d) to be drawn less than card %d (weight %d): %d vs %d",
				id, cards[id-1].RevisionWeight, id+1, cards[id].RevisionWeight, counts[id], counts[id+1])
		}
	}
}

func TestBuildShufflesPresentation(t *testing.T) {
	s := seeded(4)
	cards := makeDeck(1, 1, 32767)
	firstIsHeavy := 0
	const trials = 300
	for range trials {
		session := s.Build(cards, 3, domain.FlipFront)
		if session[0].ID == 3 {
			firstIsHeavy++
		}
	}
	if firstIsHeavy == trials || firstIsHeavy == 0 {
		t.Errorf("Expected heavy card to appear first only sometimes, but got %d/%d", firstIsHeavy, trials)
	}
}

func TestBuildFlipModes(t *testing.T) {
	cards := makeDeck(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	byID := make(map[int64]domain.Card)
	for _, c := range cards {
		byID[c.ID] = c
	}

	t.Run("front", func(t *testing.T) {
		for _, rc := range seeded(5).Build(cards, 10, domain.FlipFront) {
			c := byID[rc.ID]
			if rc.First != c.Front || rc.Second != c.Back {
				t.Errorf("Card %d: got first=%q second=%q", rc.ID, rc.First, rc.Second)
			}
		}
	})

	t.Run("back", func(t *testing.T) {
		for _, rc := range seeded(6).Build(cards, 10, domain.FlipBack) {
			c := byID[rc.ID]
			if rc.First != c.Back || rc.Second != c.Front {
				t.Errorf("Card %d: got first=%q second=%q", rc.ID, rc.First, rc.Second)
			}
		}
	})

	t.Run("both", func(t *testing.T) {
		s := seeded(7)
		frontFirst, total := 0, 0
		for range 200 {
			for _, rc := range s.Build(cards, 10, domain.FlipBoth) {
				c := byID[rc.ID]
				switch rc.First {
				case c.Front:
					frontFirst++
					if rc.Second != c.Back {
						t.Fatalf("Card %d: second side should be the back", rc.ID)
					}
				case c.Back:
					if rc.Second != c.Front {
						t.Fatalf("Card %d: second side should be the front", rc.ID)
					}
				default:
					t.Fatalf("Card %d: unexpected first side %q", rc.ID, rc.First)
				}
				total++
			}
		}
		ratio := float64(frontFirst) / float64(total)
		if ratio < 0.45 || ratio > 0.55 {
			t.Errorf("Expected roughly half front-first, but got %.3f", ratio)
		}
	})
}

func TestBuildThreeCardScenario(t *testing.T) {
	s := seeded(8)
	cards := makeDeck(1, 1, 32767)
	included := 0
	for range 100 {
		session := s.Build(cards, 2, domain.FlipFront)
		if len(session) != 2 {
			t.Fatalf("Expected 2 cards, but got %d", len(session))
		}
		if session[0].ID == session[1].ID {
			t.Fatal("Expected two distinct cards")
		}
		for _, rc := range session {
			if rc.First != cards[rc.ID-1].Front {
				t.Errorf("Expected first side to be the front for card %d", rc.ID)
			}
			if rc.ID == 3 {
				included++
			}
		}
	}
	if included < 90 {
		t.Errorf("Expected heavy card in at least 90/100 sessions, but got %d", included)
	}
}

func TestBuildEmptyDeck(t *testing.T) {
	session := NewSampler(nil).Build(nil, 10, domain.FlipBoth)
	if session == nil || len(session) != 0 {
		t.Errorf("Expected an empty non-nil session, but got %#v", session)
	}
}
