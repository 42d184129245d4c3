package revision

import (
	"context"
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/logger"
)

// maxSwapAttempts bounds the compare-and-swap loop in SubmitFeedback.
const maxSwapAttempts = 8

// Directory supplies decks and their cards, already scoped to a user.
// Lookups of decks or cards the user does not own return domain.ErrNotFound.
type Directory interface {
	GetDeck(ctx context.Context, userID, deckID int64) (*domain.Deck, error)
	CardsInDeck(ctx context.Context, userID, deckID int64) ([]domain.Card, error)
	CardForUser(ctx context.Context, userID, cardID int64) (*domain.Card, error)
}

// WeightStore owns the persisted revision weight of every card.
type WeightStore interface {
	ReadWeight(ctx context.Context, cardID int64) (int, error)
	// CompareAndSwapWeight writes next only if the stored weight is still
	// prev, and reports whether it did.
	CompareAndSwapWeight(ctx context.Context, cardID int64, prev, next int) (bool, error)
}

// Service runs revision sessions and records feedback.
type Service struct {
	dir     Directory
	weights WeightStore
	sampler *Sampler
	log     *logger.Logger
}

// NewService wires a Service. A nil sampler uses NewSampler(nil).
func NewService(dir Directory, weights WeightStore, sampler *Sampler, log *logger.Logger) *Service {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	return &Service{dir: dir, weights: weights, sampler: sampler, log: log}
}

// BuildSession draws a fresh revision session for one of the user's decks.
// An empty deck yields an empty, non-nil session.
func (s *Service) BuildSession(ctx context.Context, userID, deckID int64) ([]domain.RevisionCard, error) {
	deck, err := s.dir.GetDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	cards, err := s.dir.CardsInDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	session := s.sampler.Build(cards, deck.RevisionLength, deck.FlipMode)
	s.log.Debug("Built revision session",
		"deck_id", deckID,
		"candidates", len(cards),
		"drawn", len(session),
		"flip_mode", deck.FlipMode.String(),
	)
	return session, nil
}

// SubmitFeedback applies a feedback label to one of the user's cards and
// returns the card's resulting weight. An unrecognised label changes nothing.
//
// The read-modify-write is a compare-and-swap loop, so two concurrent
// submissions for the same card both take effect.
func (s *Service) SubmitFeedback(ctx context.Context, userID, cardID int64, label string) (int, error) {
	if _, err := s.dir.CardForUser(ctx, userID, cardID); err != nil {
		return 0, err
	}

	fb, ok := domain.ParseFeedback(label)
	if !ok {
		s.log.Warn("Ignoring unknown feedback label", "card_id", cardID, "label", label)
		w, err := s.weights.ReadWeight(ctx, cardID)
		if err != nil {
			return 0, err
		}
		return ClampWeight(w), nil
	}

	for range maxSwapAttempts {
		stored, err := s.weights.ReadWeight(ctx, cardID)
		if err != nil {
			return 0, err
		}
		next := ApplyFeedback(ClampWeight(stored), fb)
		swapped, err := s.weights.CompareAndSwapWeight(ctx, cardID, stored, next)
		if err != nil {
			return 0, err
		}
		if swapped {
			s.log.Debug("Applied feedback", "card_id", cardID, "feedback", fb.String(), "from", stored, "to", next)
			return next, nil
		}
	}
	return 0, fmt.Errorf("%w: card %d", domain.ErrWeightContention, cardID)
}
