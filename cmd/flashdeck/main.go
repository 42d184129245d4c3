package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/revision"
	"github.com/conorfennell/flashdeck/internal/scheduler"
	"github.com/conorfennell/flashdeck/internal/sources"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flashdeck: %v\n", err)
		os.Exit(1)
	}
}

// run executes one invocation and returns its error once cleanup is done.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("flashdeck", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	addUser := flags.String("add-user", "", "create a user and print a session token")
	addSource := flags.String("add-source", "", "register a directory or git URL as a card source (needs --deck)")
	deckID := flags.Int64("deck", 0, "deck id for --add-source")
	syncOnce := flags.Bool("sync", false, "sync all sources once and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *addSource != "" && *deckID == 0 {
		return errors.New("--add-source needs --deck")
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	db, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, storage.Options{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Database opened", "driver", cfg.DB.Driver)

	syncer := sources.NewSyncer(db, log, sources.Options{
		ReposDir:      cfg.Sources.ReposDir,
		LocalRoot:     cfg.Sources.LocalRoot,
		DefaultWeight: cfg.Card.DefaultWeight,
	})

	switch {
	case *addUser != "":
		if err := createUser(ctx, db, *addUser, stdout); err != nil {
			return fmt.Errorf("failed to add user %s: %w", *addUser, err)
		}
		return nil
	case *addSource != "":
		source, err := syncer.AddSource(ctx, *deckID, *addSource)
		if err != nil {
			return fmt.Errorf("failed to add source %s: %w", *addSource, err)
		}
		log.Info("Added new source", "id", source.ID, "type", source.Type, "path", source.Path)
		return nil
	case *syncOnce:
		if _, err := syncer.RunAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		return nil
	}

	return serve(ctx, cfg, db, syncer, log)
}

// createUser adds a user, or reuses an existing one, and prints a fresh
// session token for it.
func createUser(ctx context.Context, db *storage.DB, username string, stdout io.Writer) error {
	user, err := db.FindUserByName(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = db.InsertUser(ctx, username)
	}
	if err != nil {
		return err
	}
	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, session.Token)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, db *storage.DB, syncer *sources.Syncer, log *logger.Logger) error {
	jobs := scheduler.New(db, syncer, scheduler.Config{
		SessionMaxAge: cfg.Session.MaxAge,
		PurgeInterval: cfg.Session.PurgeInterval,
		SyncInterval:  cfg.Sources.SyncInterval,
	}, log)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	server := web.NewServer(db, revision.NewService(db, db, nil, log), syncer, log, web.Options{
		CookieName:            cfg.Session.CookieName,
		SessionMaxAge:         cfg.Session.MaxAge,
		PerPage:               cfg.Cards.PerPage,
		DefaultRevisionLength: cfg.Deck.DefaultRevisionLength,
		DefaultWeight:         cfg.Card.DefaultWeight,
		StaticDir:             cfg.Static.Dir,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
