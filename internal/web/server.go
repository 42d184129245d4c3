package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/revision"
	"github.com/conorfennell/flashdeck/internal/sources"
	"github.com/conorfennell/flashdeck/internal/storage"
)

const maxBodyBytes = 1 << 20

// Options tunes the HTTP layer.
type Options struct {
	CookieName            string
	SessionMaxAge         time.Duration
	PerPage               int
	DefaultRevisionLength int
	DefaultWeight         int
	// StaticDir, when set, is served under /static/ and its index.html
	// answers every other GET outside /api.
	StaticDir string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	revision *revision.Service
	syncer   *sources.Syncer
	log      *logger.Logger
	opts     Options
	validate *validator.Validate
	router   *http.ServeMux
	handler  http.Handler
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, rev *revision.Service, syncer *sources.Syncer, log *logger.Logger, opts Options) *Server {
	s := &Server{
		db:       db,
		revision: rev,
		syncer:   syncer,
		log:      log,
		opts:     opts,
		validate: validator.New(),
		router:   http.NewServeMux(),
	}
	s.routes()
	s.handler = s.requestLog(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/decks/{$}", s.handleListDecks())
	api.HandleFunc("POST /api/decks/{$}", s.handleCreateDeck())
	api.HandleFunc("GET /api/decks/{deck}/{$}", s.handleGetDeck())
	api.HandleFunc("POST /api/decks/{deck}/{$}", s.handleUpdateDeck())
	api.HandleFunc("DELETE /api/decks/{deck}/{$}", s.handleDeleteDeck())

	api.HandleFunc("GET /api/decks/{deck}/cards/{$}", s.handleListCards())
	api.HandleFunc("POST /api/decks/{deck}/cards/{$}", s.handleCreateCard())
	api.HandleFunc("GET /api/decks/{deck}/cards/{card}/{$}", s.handleGetCard())
	api.HandleFunc("POST /api/decks/{deck}/cards/{card}/{$}", s.handleUpdateCard())
	api.HandleFunc("DELETE /api/decks/{deck}/cards/{card}/{$}", s.handleDeleteCard())

	api.HandleFunc("GET /api/decks/{deck}/revision/{$}", s.handleRevision())
	api.HandleFunc("POST /api/cards/{card}/feedback/{$}", s.handleFeedback())

	api.HandleFunc("GET /api/decks/{deck}/sources/{$}", s.handleListSources())
	api.HandleFunc("POST /api/decks/{deck}/sources/{$}", s.handleAddSource())
	api.HandleFunc("DELETE /api/sources/{source}/{$}", s.handleDeleteSource())
	api.HandleFunc("POST /api/sync/{$}", s.handleSync())

	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})

	s.router.Handle("/api/", s.authenticate(api))
	s.router.HandleFunc("GET /logout/{$}", s.handleLogout())

	if s.opts.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.opts.StaticDir))
		s.router.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
		s.router.HandleFunc("/", s.handleIndex())
	}
}

// handleIndex serves the client bundle's index.html so client-side routes
// survive a reload.
func (s *Server) handleIndex() http.HandlerFunc {
	index := filepath.Join(s.opts.StaticDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

// handleLogout ends the session and sends the browser to the login page.
func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := s.sessionToken(r); token != "" {
			if err := s.db.DeleteSession(r.Context(), token); err != nil {
				s.log.Warn("Failed to delete session", "error", err)
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     s.opts.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
	}
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, &badRequestError{msg: "invalid " + name + " id", err: err}
	}
	return id, nil
}
