package web

import (
	"net/http"

	"github.com/conorfennell/flashdeck/internal/domain"
)

type addSourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if _, err := s.db.GetDeck(ctx, userID(ctx), deckID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		list, err := s.db.ListSources(ctx, userID(ctx), deckID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	}
}

// handleAddSource registers a source for a deck. Cards are imported on the
// next sync. Local paths must lie inside the configured local root.
func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		var req addSourceRequest
		if err := s.decode(w, r, &req); err != nil {
			s.respondErr(w, r, err)
			return
		}
		if _, err := s.db.GetDeck(ctx, userID(ctx), deckID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		source, err := s.syncer.AddUserSource(ctx, deckID, req.Path)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, source)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sourceID, err := pathID(r, "source")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if _, err := s.db.GetSourceForUser(ctx, userID(ctx), sourceID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		if err := s.db.DeleteSource(ctx, sourceID); err != nil {
			s.respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSync syncs every source of the user's decks in the foreground.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		decks, err := s.db.ListDecks(ctx, userID(ctx))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		var list []domain.Source
		for _, deck := range decks {
			deckSources, err := s.db.ListSources(ctx, userID(ctx), deck.ID)
			if err != nil {
				s.respondErr(w, r, err)
				return
			}
			list = append(list, deckSources...)
		}
		reports, err := s.syncer.SyncAll(ctx, list)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reports)
	}
}
