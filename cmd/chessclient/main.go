package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"chessfront/internal/board"
	"chessfront/internal/buildinfo"
	"chessfront/internal/dispatch"
	"chessfront/internal/logging"
	"chessfront/internal/selection"
	"chessfront/internal/submit"
	"chessfront/internal/term"
	"chessfront/internal/view"
)

func main() {
	authority := flag.String("authority", envOr("CHESS_AUTHORITY", "http://localhost:8080"), "base URL of the move authority")
	debug := flag.Bool("debug", false, "enable debug logging")
	logPath := flag.String("log", "chessclient.log", "diagnostic log file")
	timeout := flag.Duration("timeout", 0, "per-request timeout for move submissions (0 = none)")
	guard := flag.Bool("guard", false, "ignore clicks while a move is in flight")
	highlight := flag.Bool("highlight", false, "ask the authority for destinations to highlight")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.String("chessclient"))
		return
	}
	logging.Debug = *debug

	f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer f.Close()
	log.SetOutput(f)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, *authority, *timeout, *guard, *highlight); err != nil {
		log.Printf("chessclient: %v", err)
		fmt.Fprintln(os.Stderr, "chessclient:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, authority string, timeout time.Duration, guard, highlight bool) error {
	authority = strings.TrimRight(authority, "/")
	b, err := fetchBoard(ctx, authority)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := dispatch.NewLoop(64)

	// The UI is wired after the machine and submitter, which need it as
	// notifier and highlighter; ui is only dereferenced on the loop.
	var ui *term.UI
	notify := view.NotifierFunc(func(msg string) {
		log.Printf("move rejected: %s", msg)
		ui.NotifyFailure(msg)
	})
	sub := submit.New(submit.Config{BaseURL: authority, Timeout: timeout}, b, notify, loop.Post)

	var opts []selection.Option
	if highlight {
		opts = append(opts,
			selection.WithMoveSource(selection.RemoteMoves{BaseURL: authority}),
			selection.WithAsyncMoves(loop.Post),
			selection.WithHighlighter(func(from board.Position, to []board.Position) { ui.Highlight(from, to) }))
	}
	if guard {
		opts = append(opts, selection.WithInputGuard(sub.InFlight))
	}
	machine := selection.New(sub, opts...)

	disp := dispatch.New(b, machine, loop)
	if err := disp.Bind(b.Cells()); err != nil {
		return err
	}

	ui = term.New(screen, b, disp, machine, loop.Post)
	loop.AfterEach(ui.Draw)

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()
	ui.Run(ctx, cancel)

	err = <-errc
	sub.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// fetchBoard loads the board page from the authority and parses it.
func fetchBoard(ctx context.Context, authority string) (*view.Board, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authority+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch board: %s", resp.Status)
	}
	b, err := view.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	if len(b.Cells()) == 0 {
		return nil, errors.New("board page has no cells")
	}
	logging.Debugf("loaded %d cells from %s", len(b.Cells()), authority)
	return b, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
