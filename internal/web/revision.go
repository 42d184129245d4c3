package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type feedbackResponse struct {
	CardID         int64 `json:"card_id"`
	RevisionWeight int   `json:"revision_weight"`
}

func (s *Server) handleRevision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, err := pathID(r, "deck")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		session, err := s.revision.BuildSession(r.Context(), userID(r.Context()), deckID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, session)
	}
}

// handleFeedback accepts the label either as a bare JSON string ("fail") or
// as {"label": "fail"}.
func (s *Server) handleFeedback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathID(r, "card")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		label, err := readLabel(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		weight, err := s.revision.SubmitFeedback(r.Context(), userID(r.Context()), cardID, label)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, feedbackResponse{CardID: cardID, RevisionWeight: weight})
	}
}

func readLabel(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", &badRequestError{msg: "malformed request body", err: err}
	}
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		return label, nil
	}
	var obj struct {
		Label *string `json:"label"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", &badRequestError{msg: "malformed request body", err: err}
	}
	if obj.Label == nil {
		return "", &badRequestError{msg: "malformed request body", err: errors.New("missing label")}
	}
	return *obj.Label, nil
}
