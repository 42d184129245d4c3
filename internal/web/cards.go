package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
)

const maxPerPage = 1000

type cardRequest struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
}

// queryInt reads a non-negative integer query parameter, or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err == nil && n < 0 {
		err = strconv.ErrRange
	}
	if err != nil {
		return 0, &badRequestError{msg: "invalid " + name, err: err}
	}
	return n, nil
}

// handleListCards returns one page of a deck's cards. Pages count from 0.
func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		page, err := queryInt(r, "page", 0)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		perPage, err := queryInt(r, "per_page", s.opts.PerPage)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		perPage = min(max(perPage, 1), maxPerPage)

		if _, err := s.db.GetDeck(ctx, userID(ctx), deckID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		cards, err := s.db.ListCards(ctx, userID(ctx), deckID, storage.CardQuery{
			Page:       page,
			PerPage:    perPage,
			SearchTerm: r.URL.Query().Get("search_term"),
		})
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		var req cardRequest
		if err := s.decode(w, r, &req); err != nil {
			s.respondErr(w, r, err)
			return
		}
		if _, err := s.db.GetDeck(ctx, userID(ctx), deckID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		card := &domain.Card{
			DeckID:         deckID,
			Front:          req.Front,
			Back:           req.Back,
			RevisionWeight: s.opts.DefaultWeight,
		}
		if err := s.db.InsertCard(ctx, card); err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, card)
	}
}

// cardPath parses the deck and card ids of a card route.
func cardPath(r *http.Request) (deckID, cardID int64, err error) {
	if deckID, err = pathID(r, "deck"); err != nil {
		return 0, 0, err
	}
	if cardID, err = pathID(r, "card"); err != nil {
		return 0, 0, err
	}
	return deckID, cardID, nil
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, cardID, err := cardPath(r)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		card, err := s.db.GetCard(r.Context(), userID(r.Context()), deckID, cardID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, cardID, err := cardPath(r)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		var req cardRequest
		if err := s.decode(w, r, &req); err != nil {
			s.respondErr(w, r, err)
			return
		}
		card, err := s.db.UpdateCardText(r.Context(), userID(r.Context()), deckID, cardID, req.Front, req.Back)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, cardID, err := cardPath(r)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if err := s.db.DeleteCard(r.Context(), userID(r.Context()), deckID, cardID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
