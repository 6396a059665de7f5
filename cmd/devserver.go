package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/devserver"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory task backend for local use",
	Long: `Serves the task API from memory so taskdeck can be tried without the real
backend. Everything is lost when the server stops. With --seed the server starts
with a demo account (taskdeck login --guest), contacts and a few tasks.`,
	Args: cobra.NoArgs,
	RunE: runDevserver,
}

func init() {
	devserverCmd.Flags().String("addr", "localhost:8000", "listen address")
	devserverCmd.Flags().String("base-path", devserver.DefaultBasePath, "path prefix of the API")
	devserverCmd.Flags().Bool("seed", true, "create demo data")
	devserverCmd.Flags().StringSlice("allow-origin", nil, "enable CORS for these browser origins")
	devserverCmd.Flags().Duration("access-ttl", 0, "access cookie lifetime (default 5m)")
	rootCmd.AddCommand(devserverCmd)
}

func runDevserver(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	basePath, _ := cmd.Flags().GetString("base-path")
	seed, _ := cmd.Flags().GetBool("seed")
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")
	accessTTL, _ := cmd.Flags().GetDuration("access-ttl")

	logger := newLogger().With("component", "devserver")
	srv, err := devserver.New(devserver.Options{
		BasePath:     basePath,
		AccessTTL:    accessTTL,
		AllowOrigins: origins,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if seed {
		if err := srv.Seed(); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	output.Messagef(os.Stderr, "Serving http://%s%s (Ctrl+C to stop)", ln.Addr(), basePath)
	if seed {
		output.Messagef(os.Stderr, "Demo login: %s / %s", devserver.DemoEmail, devserver.DemoPassword)
	}

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
