// Package cmd implements the taskdeck CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/api"
	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/config"
	"github.com/twiced-technology-gmbh/taskdeck/internal/contacts"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/session"
	"github.com/twiced-technology-gmbh/taskdeck/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
	flagVerbose bool
	flagBaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Terminal client for the Join task board",
	Long: `taskdeck shows the team's task board in the terminal.
Run taskdeck without arguments to open the interactive board. The subcommands
list, create, move and delete tasks and manage contacts from scripts.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "config directory (default ~/.config/taskdeck)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and store activity to stderr")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API root, overrides config and "+config.EnvBaseURL)
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	_, err := rootCmd.ExecuteContextC(ctx)
	stop()
	if err == nil {
		return
	}

	// SilentError: exit with its code, print nothing.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	// Determine if JSON mode is active.
	jsonMode := flagJSON
	if !jsonMode {
		jsonMode = os.Getenv(output.EnvOutput) == "json"
	}

	if jsonMode {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Anything else is reported as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	// Non-JSON mode: print to stderr.
	fmt.Fprintln(os.Stderr, err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// newLogger returns the stderr logger. Only warnings and errors are shown
// unless --verbose is set.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveDir returns the config directory: --dir or ~/.config/taskdeck.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	return config.DefaultDir()
}

// loadConfig loads the config, writing defaults on first use, and applies
// --base-url.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrInit(dir)
	if err != nil {
		return nil, clierr.Wrap(clierr.ConfigNotFound, err.Error(), err)
	}
	if flagBaseURL != "" {
		if err := cfg.OverrideBaseURL(flagBaseURL); err != nil {
			return nil, clierr.Wrap(clierr.InvalidInput, "--base-url: "+err.Error(), err)
		}
	}
	return cfg, nil
}

// app bundles what a command needs to talk to the backend.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Store
	client   *api.Client
	store    *store.Store
	contacts *contacts.Directory

	expired atomic.Bool
}

// openApp loads config and session and builds the API client with the saved
// cookies. reporter receives store failures; nil logs them.
func openApp(reporter store.Reporter) (*app, error) {
	return openAppWith(reporter, newLogger())
}

// openAppWith is openApp with an explicit logger.
func openAppWith(reporter store.Reporter, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		sessions: session.NewStore(cfg.SessionPath()),
	}
	sess, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.BaseURL(), api.Options{
		Timeout:   cfg.Timeout(),
		OnExpired: a.sessionExpired,
		Logger:    logger.With("component", "api"),
	})
	if err != nil {
		return nil, err
	}
	if sess.BaseURL == client.BaseURL() {
		client.RestoreCookies(sess.HTTPCookies(time.Now()))
	}
	a.client = client

	if reporter == nil {
		reporter = store.NewLogReporter(logger.With("component", "store")).AtLevel(slog.LevelInfo)
	}
	a.store = store.New(client, store.WithReporter(reporter), store.WithLogger(logger.With("component", "store")))
	a.contacts = contacts.NewDirectory(client, reporter, cfg.LanguageTag())
	return a, nil
}

// openAuthedApp is openApp for commands that need a signed-in user.
func openAuthedApp(reporter store.Reporter) (*app, session.User, error) {
	return openAuthedAppWith(reporter, newLogger())
}

func openAuthedAppWith(reporter store.Reporter, logger *slog.Logger) (*app, session.User, error) {
	a, err := openAppWith(reporter, logger)
	if err != nil {
		return nil, session.User{}, err
	}
	u, err := a.sessions.RequireUser()
	if err != nil {
		return nil, session.User{}, err
	}
	return a, u, nil
}

// sessionExpired drops the local session once the server refuses to refresh.
func (a *app) sessionExpired() {
	if a.expired.Swap(true) {
		return
	}
	a.logger.Warn("session expired, log in again")
	if err := a.sessions.Clear(); err != nil {
		a.logger.Error("clearing session", "err", err)
	}
}

// persistSession writes back the cookies the server may have rotated.
func (a *app) persistSession() {
	if a.expired.Load() {
		return
	}
	cur := a.sessions.Current()
	if !cur.SignedIn() {
		return
	}
	cur.BaseURL = a.client.BaseURL()
	cur.Cookies = session.FromHTTP(a.client.Cookies())
	if err := a.sessions.Save(cur); err != nil {
		a.logger.Warn("saving session", "err", err)
	}
}

// logActivity appends an entry to the activity log. Errors are silently
// discarded because logging should never fail a command.
func (a *app) logActivity(action string, taskID int, detail string) {
	board.LogMutation(a.cfg.Dir(), action, taskID, detail)
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// parseIDs splits a comma-separated ID string into deduplicated int IDs.
func parseIDs(arg string) ([]int, error) {
	return board.ParseIDs(arg)
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []int, fn func(int) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err != nil {
			anyFailed = true
			var cliErr *clierr.Error
			if errors.As(err, &cliErr) {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: cliErr.Message, Code: cliErr.Code})
			} else {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: err.Error()})
			}
		} else {
			results = append(results, output.BatchResult{ID: id, OK: true})
		}
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: task #%d: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
