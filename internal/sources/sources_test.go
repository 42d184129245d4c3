package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/storage"
)

func setup(t *testing.T) (*storage.DB, *domain.Deck) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), storage.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	u, err := db.InsertUser(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	d := &domain.Deck{UserID: u.ID, Name: "notes", RevisionLength: 10, FlipMode: domain.FlipFront}
	if err := db.InsertDeck(ctx, d); err != nil {
		t.Fatalf("InsertDeck: %v", err)
	}
	return db, d
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestSourceType(t *testing.T) {
	testCases := []struct {
		path string
		want string
	}{
		{"https://github.com/user/repo.git", domain.SourceGit},
		{"git@github.com:user/repo.git", domain.SourceGit},
		{"/srv/notes", domain.SourceLocal},
		{"notes", domain.SourceLocal},
	}
	for _, tc := range testCases {
		if got := SourceType(tc.path); got != tc.want {
			t.Errorf("SourceType(%q): Expected %s, but got %s", tc.path, tc.want, got)
		}
	}
}

func TestGitURLToLocalPath(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"https", "https://github.com/user/repo.git", filepath.Join("base", "github.com", "user", "repo"), false},
		{"ssh", "git@github.com:user/repo.git", filepath.Join("base", "github.com", "user", "repo"), false},
		{"garbage", "not a url", "", true},
		{"https parent segments", "https://evil.example/../../../tmp/pwn.git", "", true},
		{"https dot-dot host", "https://../pwn.git", "", true},
		{"ssh parent segments", "git@github.com:../../pwn.git", "", true},
		{"ssh extra colon", "git@github.com:a:b.git", "", true},
		{"host only", "https://github.com", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gitURLToLocalPath("base", tc.url)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Expected error %v, but got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Errorf("Expected %q, but got %q", tc.want, got)
			}
		})
	}
}

func TestSyncLocalSource(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "Q: one\nA: 1\n---\nQ: two\nA: 2\n")
	writeFile(t, filepath.Join(dir, "b.csv"), "front,back\nthree,3\n")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "Q: nope\nA: nope\n")

	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})
	source, err := syncer.AddSource(ctx, deck.ID, dir)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if source.Type != domain.SourceLocal {
		t.Errorf("Expected local source, but got %s", source.Type)
	}

	report, err := syncer.Sync(ctx, *source)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if report.Inserted != 3 || report.Deleted != 0 {
		t.Errorf("Expected 3 inserted and 0 deleted, but got %+v", report)
	}
	cards, err := db.GetCardsBySourceID(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetCardsBySourceID: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("Expected 3 cards, but got %d", len(cards))
	}
	for _, c := range cards {
		if c.RevisionWeight != 1024 {
			t.Errorf("Expected default weight 1024, but got %d", c.RevisionWeight)
		}
	}

	t.Run("second sync is idempotent", func(t *testing.T) {
		report, err := syncer.Sync(ctx, *source)
		if err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if report.Inserted != 0 || report.Deleted != 0 {
			t.Errorf("Expected no changes, but got %+v", report)
		}
	})

	t.Run("removed cards are deleted", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "a.md"), "Q: one\nA: 1\n")
		report, err := syncer.Sync(ctx, *source)
		if err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if report.Deleted != 1 {
			t.Errorf("Expected 1 deleted, but got %+v", report)
		}
		cards, _ := db.GetCardsBySourceID(ctx, source.ID)
		if len(cards) != 2 {
			t.Errorf("Expected 2 cards left, but got %d", len(cards))
		}
	})
}

func TestSyncKeepsWeightOfExistingCards(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "Q: one\nA: 1\n")

	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})
	source, err := syncer.AddSource(ctx, deck.ID, dir)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if _, err := syncer.Sync(ctx, *source); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	cards, _ := db.GetCardsBySourceID(ctx, source.ID)
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, but got %d", len(cards))
	}
	if err := db.WriteWeight(ctx, cards[0].ID, 4096); err != nil {
		t.Fatalf("WriteWeight: %v", err)
	}

	if _, err := syncer.Sync(ctx, *source); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	w, err := db.ReadWeight(ctx, cards[0].ID)
	if err != nil {
		t.Fatalf("ReadWeight: %v", err)
	}
	if w != 4096 {
		t.Errorf("Expected weight 4096 to survive a resync, but got %d", w)
	}
}

func TestRunAllSkipsBrokenSources(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	good := t.TempDir()
	writeFile(t, filepath.Join(good, "a.md"), "Q: one\nA: 1\n")

	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})
	if _, err := syncer.AddSource(ctx, deck.ID, filepath.Join(good, "missing")); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if _, err := syncer.AddSource(ctx, deck.ID, good); err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	reports, err := syncer.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 successful report, but got %d", len(reports))
	}
	if reports[0].Inserted != 1 {
		t.Errorf("Expected 1 inserted, but got %d", reports[0].Inserted)
	}
}

func TestAddSourceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	dir := t.TempDir()
	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})

	if _, err := syncer.AddSource(ctx, deck.ID, dir); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if _, err := syncer.AddSource(ctx, deck.ID, dir); !errors.Is(err, ErrDuplicateSource) {
		t.Errorf("Expected ErrDuplicateSource, but got %v", err)
	}
}

func TestAddUserSource(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	root := t.TempDir()
	outside := t.TempDir()
	for _, dir := range []string{"alice", "alice/nested", "bob"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), LocalRoot: root, DefaultWeight: 1024})
	if _, err := syncer.AddUserSource(ctx, deck.ID, filepath.Join(root, "alice")); err != nil {
		t.Fatalf("AddUserSource: %v", err)
	}

	testCases := []struct {
		name string
		path string
		want error
	}{
		{"outside the root", outside, ErrSourceNotAllowed},
		{"symlink out of the root", filepath.Join(root, "escape"), ErrSourceNotAllowed},
		{"missing directory", filepath.Join(root, "missing"), ErrSourceNotAllowed},
		{"ancestor of a registered source", root, ErrSourceNotAllowed},
		{"inside a registered source", filepath.Join(root, "alice", "nested"), ErrSourceNotAllowed},
		{"same directory", filepath.Join(root, "alice", "nested", ".."), ErrDuplicateSource},
		{"git url escaping the repos dir", "https://evil.example/../../tmp/pwn.git", ErrSourceNotAllowed},
		{"sibling directory", filepath.Join(root, "bob"), nil},
		{"git url", "https://github.com/user/repo.git", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := syncer.AddUserSource(ctx, deck.ID, tc.path)
			if tc.want == nil {
				if err != nil {
					t.Errorf("Expected success, but got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, but got %v", tc.want, err)
			}
		})
	}

	t.Run("local sources disabled without a root", func(t *testing.T) {
		closed := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})
		if _, err := closed.AddUserSource(ctx, deck.ID, t.TempDir()); !errors.Is(err, ErrSourceNotAllowed) {
			t.Errorf("Expected ErrSourceNotAllowed, but got %v", err)
		}
	})
}

func TestConcurrentSyncsImportOnce(t *testing.T) {
	ctx := context.Background()
	db, deck := setup(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "Q: one\nA: 1\n---\nQ: two\nA: 2\n---\nQ: three\nA: 3\n")

	syncer := NewSyncer(db, logger.Nop(), Options{ReposDir: t.TempDir(), DefaultWeight: 1024})
	source, err := syncer.AddSource(ctx, deck.ID, dir)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	const workers = 4
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := syncer.Sync(ctx, *source); err != nil {
				t.Errorf("Sync: %v", err)
			}
		}()
	}
	wg.Wait()

	cards, err := db.GetCardsBySourceID(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetCardsBySourceID: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("Expected 3 cards after concurrent syncs, but got %d", len(cards))
	}
}
