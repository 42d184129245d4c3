package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/fingerprint"
	"github.com/conorfennell/flashdeck/internal/gitsource"
	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/parser"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// Errors returned when registering a source.
var (
	ErrDuplicateSource  = errors.New("flashdeck: source already registered")
	ErrSourceNotAllowed = errors.New("flashdeck: source path not allowed")
)

// Options configures a Syncer.
type Options struct {
	// ReposDir holds clones of git sources.
	ReposDir string
	// LocalRoot bounds the local directories users may register. Empty
	// disables local sources for users; the command line is not bound by it.
	LocalRoot     string
	DefaultWeight int
}

// Syncer imports cards from deck sources.
type Syncer struct {
	db   *storage.DB
	log  *logger.Logger
	opts Options

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Report summarises one source sync.
type Report struct {
	SourceID int64 `json:"source_id"`
	Parsed   int   `json:"parsed"`
	Inserted int   `json:"inserted"`
	Deleted  int   `json:"deleted"`
	Errors   int   `json:"errors"`
}

func NewSyncer(db *storage.DB, log *logger.Logger, opts Options) *Syncer {
	return &Syncer{db: db, log: log, opts: opts, locks: make(map[int64]*sync.Mutex)}
}

// SourceType guesses whether path names a git repository or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		return domain.SourceGit
	}
	return domain.SourceLocal
}

// AddSource registers path as a source of the deck without restricting where
// a local path may point. It backs the command line.
func (s *Syncer) AddSource(ctx context.Context, deckID int64, path string) (*domain.Source, error) {
	sourceType := SourceType(path)
	if sourceType == domain.SourceLocal {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		path = abs
	}
	return s.insert(ctx, deckID, path, sourceType)
}

// AddUserSource registers a source on behalf of a user. Git URLs must map
// into the repos directory. Local paths must resolve inside LocalRoot and may
// not contain, or sit inside, any other registered local source.
func (s *Syncer) AddUserSource(ctx context.Context, deckID int64, path string) (*domain.Source, error) {
	sourceType := SourceType(path)
	if sourceType == domain.SourceGit {
		if _, err := gitURLToLocalPath(s.opts.ReposDir, path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
		}
		return s.insert(ctx, deckID, path, sourceType)
	}

	if s.opts.LocalRoot == "" {
		return nil, fmt.Errorf("%w: local sources are disabled", ErrSourceNotAllowed)
	}
	root, err := resolvePath(s.opts.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local root: %w", err)
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not exist", ErrSourceNotAllowed, path)
	}
	if !within(root, resolved) {
		return nil, fmt.Errorf("%w: %s is outside the local root", ErrSourceNotAllowed, path)
	}

	existing, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.Type != domain.SourceLocal {
			continue
		}
		otherPath := other.Path
		if p, err := resolvePath(other.Path); err == nil {
			otherPath = p
		}
		if otherPath == resolved {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, path)
		}
		if within(otherPath, resolved) || within(resolved, otherPath) {
			return nil, fmt.Errorf("%w: %s overlaps source %d", ErrSourceNotAllowed, path, other.ID)
		}
	}
	return s.insert(ctx, deckID, resolved, sourceType)
}

func (s *Syncer) insert(ctx context.Context, deckID int64, path, sourceType string) (*domain.Source, error) {
	if _, err := s.db.FindSourceByPath(ctx, path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, path)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	id, err := s.db.InsertSource(ctx, deckID, path, sourceType)
	if err != nil {
		return nil, err
	}
	return &domain.Source{ID: id, DeckID: deckID, Path: path, Type: sourceType}, nil
}

// resolvePath returns the absolute, symlink-free form of an existing path.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// lockSource serialises syncs of one source and returns the unlock func.
func (s *Syncer) lockSource(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// RunAll syncs every source.
func (s *Syncer) RunAll(ctx context.Context) ([]Report, error) {
	s.log.Info("Starting sync process for all sources")
	all, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		s.log.Info("No sources configured. Add one with --add-source <path/or/url.git> --deck <id>")
		return nil, nil
	}

	return s.SyncAll(ctx, all)
}

// SyncAll syncs the given sources in order. A failing source is logged and
// left out of the reports.
func (s *Syncer) SyncAll(ctx context.Context, list []domain.Source) ([]Report, error) {
	reports := []Report{}
	for _, source := range list {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		report, err := s.Sync(ctx, source)
		if err != nil {
			s.log.Error("Error syncing source", "source_id", source.ID, "path", source.Path, "error", err)
			continue
		}
		reports = append(reports, *report)
	}
	s.log.Info("Sync process complete", "sources", len(list), "synced", len(reports))
	return reports, nil
}

// Sync brings one source's cards up to date, cloning or pulling git sources
// first.
func (s *Syncer) Sync(ctx context.Context, source domain.Source) (*Report, error) {
	defer s.lockSource(source.ID)()
	s.log.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		if err := os.MkdirAll(s.opts.ReposDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitURLToLocalPath(s.opts.ReposDir, source.Path)
		if err != nil {
			return nil, err
		}
		if err := gitsource.Sync(ctx, s.log, source.Path, localRepoPath); err != nil {
			return nil, err
		}
		dir = localRepoPath
	}
	return s.reconcile(ctx, source, dir)
}

// reconcile inserts cards found under dir that the deck does not have yet and
// deletes cards previously imported from the source that are gone.
func (s *Syncer) reconcile(ctx context.Context, source domain.Source, dir string) (*Report, error) {
	report := &Report{SourceID: source.ID}
	found := make(map[string]bool)
	var errs []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fileCards, parseErr := parseAny(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			report.Parsed++
			card.Hash = fingerprint.Of(card)
			if found[card.Hash] {
				continue
			}
			found[card.Hash] = true

			card.DeckID = source.DeckID
			card.RevisionWeight = s.opts.DefaultWeight
			card.SourceID = &source.ID
			inserted, insertErr := s.db.InsertCardIfAbsent(ctx, &card)
			if insertErr != nil {
				errs = append(errs, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
				continue
			}
			if inserted {
				report.Inserted++
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}

	imported, err := s.db.GetCardsBySourceID(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	for _, card := range imported {
		if found[card.Hash] {
			continue
		}
		s.log.Debug("Orphaned card, deleting", "card_id", card.ID, "hash", card.Hash)
		if err := s.db.DeleteCardByID(ctx, card.ID); err != nil {
			s.log.Warn("Failed to delete orphaned card", "card_id", card.ID, "error", err)
			continue
		}
		report.Deleted++
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		s.log.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	for _, e := range errs {
		s.log.Warn("Import problem", "source_id", source.ID, "error", e)
	}
	report.Errors = len(errs)
	s.log.Info("Reconciliation complete",
		"path", dir,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"orphaned_deleted", report.Deleted,
		"errors", report.Errors,
	)
	return report, nil
}

// parseAny picks a parser by file extension. Other files yield no cards.
func parseAny(path string) ([]domain.Card, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return parser.ParseFile(path)
	case ".xlsx":
		return parser.ParseWorkbook(path)
	case ".csv":
		return parser.ParseCSVFile(path)
	}
	return nil, nil
}

// gitURLToLocalPath maps a git URL to its clone directory under baseDir.
// URLs whose path would leave baseDir are rejected.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	var host, repoPath string
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		user, rest, ok := strings.Cut(repoURL, "@")
		h, p, ok2 := strings.Cut(rest, ":")
		if !ok || !ok2 || user == "" || strings.Contains(p, ":") {
			return "", fmt.Errorf("could not parse git URL: %s", repoURL)
		}
		host, repoPath = h, p
	} else {
		host, repoPath = parsedURL.Host, parsedURL.Path
	}

	repoPath = strings.TrimSuffix(repoPath, ".git")
	for _, segment := range strings.Split(host+"/"+repoPath, "/") {
		if segment == ".." {
			return "", fmt.Errorf("git URL escapes the repos directory: %s", repoURL)
		}
	}
	if host == "" || strings.ContainsAny(host, `\`) {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	localPath := filepath.Join(baseDir, host, repoPath)
	rel, err := filepath.Rel(baseDir, localPath)
	if err != nil || rel == "." || !within(baseDir, localPath) {
		return "", fmt.Errorf("git URL escapes the repos directory: %s", repoURL)
	}
	return localPath, nil
}
