package web

import (
	"net/http"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
)

type createDeckRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	RevisionLength *int             `json:"revision_length" validate:"omitempty,min=5,max=25"`
	FlipMode       *domain.FlipMode `json:"flip_mode"`
}

type updateDeckRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	RevisionLength *int             `json:"revision_length" validate:"omitempty,min=5,max=25"`
	FlipMode       *domain.FlipMode `json:"flip_mode"`
}

func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.db.ListDecks(r.Context(), userID(r.Context()))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, decks)
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDeckRequest
		if err := s.decode(w, r, &req); err != nil {
			s.respondErr(w, r, err)
			return
		}
		deck := &domain.Deck{
			UserID:         userID(r.Context()),
			Name:           req.Name,
			RevisionLength: s.opts.DefaultRevisionLength,
			FlipMode:       domain.FlipFront,
		}
		if req.RevisionLength != nil {
			deck.RevisionLength = *req.RevisionLength
		}
		if req.FlipMode != nil {
			deck.FlipMode = *req.FlipMode
		}
		if err := s.db.InsertDeck(r.Context(), deck); err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		deck, err := s.db.GetDeck(r.Context(), userID(r.Context()), deckID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		var req updateDeckRequest
		if err := s.decode(w, r, &req); err != nil {
			s.respondErr(w, r, err)
			return
		}
		deck, err := s.db.UpdateDeck(r.Context(), userID(r.Context()), deckID, storage.DeckUpdate{
			Name:           req.Name,
			RevisionLength: req.RevisionLength,
			FlipMode:       req.FlipMode,
		})
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if err := s.db.DeleteDeck(r.Context(), userID(r.Context()), deckID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
