package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/config"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
	"github.com/twiced-technology-gmbh/taskdeck/internal/tui"
	"github.com/twiced-technology-gmbh/taskdeck/internal/watcher"
)

const tuiLogFile = "tui.log"

func runTUI(cmd *cobra.Command, _ []string) error {
	logger, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	toaster := tui.NewToaster(nil)
	a, user, err := openAuthedAppWith(toaster, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewBoard(a.cfg, a.store,
		tui.WithContext(ctx),
		tui.WithLogger(logger.With("component", "tui")),
		tui.WithUsername(user.Username),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	toaster.Attach(p)
	defer toaster.Attach(nil)
	unsubscribe := a.store.Subscribe(func(tasks []task.Task) {
		p.Send(tui.SnapshotMsg{Tasks: tasks})
	})
	defer unsubscribe()

	go startTUIWatcher(ctx, a, p)

	_, err = p.Run()
	cancel()
	// Let a drop that is still talking to the backend settle first.
	model.Drag().Wait()
	a.persistSession()
	return err
}

// startTUIWatcher reloads the board when another shell logs in or out or
// edits the config.
func startTUIWatcher(ctx context.Context, a *app, p *tea.Program) {
	w, err := watcher.New(a.cfg.Dir(), watchedFiles(), func() {
		sess, err := a.sessions.Load()
		if err != nil {
			a.logger.Warn("reloading session", "err", err)
			return
		}
		if !sess.SignedIn() {
			p.Send(tui.ToastMsg{Text: "Signed out. Run 'taskdeck login' in another terminal."})
			return
		}
		a.client.RestoreCookies(sess.HTTPCookies(time.Now()))
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		a.logger.Warn("starting watcher", "err", err)
		return // non-fatal: TUI works without live refresh
	}
	defer w.Close()
	w.Run(ctx, func(err error) {
		a.logger.Warn("file watcher", "err", err)
	})
}

func watchedFiles() []string {
	return []string{config.SessionFileName, config.ConfigFileName}
}

// tuiLogger writes to tui.log in the config directory with --verbose and
// discards otherwise, since stderr belongs to the full-screen program.
func tuiLogger() (*slog.Logger, func(), error) {
	if !flagVerbose {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	dir, err := resolveDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // config dir mode
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, tuiLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec,mnd // path under the config dir
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", tuiLogFile, err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}
