package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"chessfront/internal/buildinfo"
	"chessfront/internal/game"
	"chessfront/internal/handlers"
	"chessfront/internal/logging"
	"chessfront/internal/storage"
	"chessfront/internal/templates"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	addr := flag.String("addr", envOr("ADDR", ":8080"), "listen address")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres DSN; empty keeps games in memory")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.String("chessfront"))
		return
	}
	logging.Debug = *debug

	commit, date := buildinfo.Resolve()
	templates.SetCommit(commit, date)

	g, store, err := setupGame(context.Background(), *dsn, *debug)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	h := handlers.NewHandler(g, store)

	log.Printf("chess authority %s listening on %s …", commit, *addr)
	log.Fatal(http.ListenAndServe(*addr, handlers.NewRouter(h)))
}

// setupGame connects storage when a DSN is given and resumes the most recent
// active game, or starts a fresh one.
func setupGame(ctx context.Context, dsn string, debug bool) (*game.Game, *storage.Store, error) {
	if dsn == "" {
		return game.New(nil), nil, nil
	}
	db, err := storage.New(dsn, debug)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewStore(db)
	g := game.New(store)

	saved, err := store.LoadActive(ctx)
	switch {
	case err == nil:
		if err := g.Resume(saved.Game.ID, saved.Moves); err != nil {
			return nil, nil, fmt.Errorf("resume game %s: %w", saved.Game.ID, err)
		}
		log.Printf("resumed game %s after %d moves", saved.Game.ID, len(saved.Moves))
	case storage.IsNotFound(err):
		if err := store.CreateGame(ctx, g.ID, time.Now()); err != nil {
			return nil, nil, fmt.Errorf("create game: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("load active game: %w", err)
	}
	return g, store, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
