package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dannyswat/vcedit"
	"github.com/dannyswat/vcedit/internal/browserlayout"
	"github.com/dannyswat/vcedit/internal/config"
	"github.com/dannyswat/vcedit/internal/server"
	"github.com/dannyswat/vcedit/internal/watch"
)

var (
	addr      string
	watchFile bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve an editing session for an HTML document over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&watchFile, "watch", false, "Reload the document when the file changes on disk")
}

// newSession builds a session from the loaded configuration. The returned
// cleanup releases the layout backend.
func newSession(ctx context.Context, c *config.Config) (*vcedit.Session, func(), error) {
	opts := []vcedit.Option{
		vcedit.WithLogger(logger),
		vcedit.WithDebounce(c.Editor.Debounce),
	}
	if c.Editor.Sanitize {
		opts = append(opts, vcedit.WithSanitizer(vcedit.DefaultSanitizer()))
	}

	cleanup := func() {}
	if c.Editor.Layout == config.LayoutBrowser {
		layout, err := browserlayout.New(ctx, browserlayout.Config{
			Bin:      c.Browser.Bin,
			Headless: c.Browser.Headless,
			Width:    c.Browser.Width,
			Height:   c.Browser.Height,
			Timeout:  c.Browser.Timeout,
		}, logger.Named("layout"))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, vcedit.WithLayout(layout))
		cleanup = func() {
			if err := layout.Close(); err != nil {
				logger.Warn("failed to close layout browser", zap.Error(err))
			}
		}
	}
	return vcedit.NewSession(opts...), cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if watchFile {
		cfg.Watch.Enabled = true
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	session, cleanup, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	name := filepath.Base(path)
	if err := session.Open(name, string(content)); err != nil {
		return fmt.Errorf("open document: %w", err)
	}

	if cfg.Watch.Enabled {
		w, err := watch.New(path, func(content []byte) {
			logger.Warn("document changed on disk, reloading; unsaved edits are discarded", zap.String("path", path))
			if err := session.Open(name, string(content)); err != nil {
				logger.Error("failed to reload document", zap.Error(err))
			}
		}, logger.Named("watch"))
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("file watch stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(session, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.String("document", name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	if err := session.Flush(); err != nil {
		logger.Warn("failed to flush pending edit", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
