package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/gathsalt/pkg/controller/http"
	"github.com/secmon-lab/gathsalt/pkg/service/feed"
	"github.com/secmon-lab/gathsalt/pkg/service/worker"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var baseURL string
	var staticDir string
	var watchFeeds []string
	var watchInterval time.Duration
	var rt runtime

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("GATHSALT_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the dashboard (e.g., https://your-domain.com), used in shared links",
			Sources:     cli.EnvVars("GATHSALT_BASE_URL"),
			Destination: &baseURL,
		},
		&cli.StringFlag{
			Name:        "static-dir",
			Usage:       "Directory of the dashboard UI build served for non-API paths",
			Sources:     cli.EnvVars("GATHSALT_STATIC_DIR"),
			Destination: &staticDir,
		},
		&cli.StringSliceFlag{
			Name:        "watch-feed",
			Usage:       "RSS or Atom feed polled for new entries to capture (repeatable)",
			Category:    "Feed",
			Sources:     cli.EnvVars("GATHSALT_WATCH_FEEDS"),
			Destination: &watchFeeds,
		},
		&cli.DurationFlag{
			Name:        "watch-interval",
			Usage:       "Poll interval of watched feeds",
			Category:    "Feed",
			Value:       15 * time.Minute,
			Sources:     cli.EnvVars("GATHSALT_WATCH_INTERVAL"),
			Destination: &watchInterval,
		},
	}
	flags = append(flags, rt.Flags(wantLLM|needGemini|needExport|needAuth)...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			hub := httpctrl.NewEventHub()

			uc, closer, err := rt.build(ctx, wantLLM|needGemini|needExport|needAuth,
				usecase.WithBaseURL(baseURL),
				usecase.WithObserver(hub),
			)
			if err != nil {
				return err
			}
			defer closer()

			if len(watchFeeds) > 0 {
				watcher := worker.NewFeedWatcher(uc.Repository(), feed.New(), capturedLinks(uc),
					watchFeeds, uc.AppConfig().Capture.FeedLimit, watchInterval)
				if err := watcher.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start feed watcher")
				}
				defer watcher.Stop()
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithEvents(hub),
			}
			if staticDir != "" {
				httpOpts = append(httpOpts, httpctrl.WithStaticFS(os.DirFS(staticDir)))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "static_dir", staticDir)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logging.Default().Info("Context canceled, shutting down")
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logging.Default().Info("Server shutdown completed", "subscribers", hub.Subscribers())
			return nil
		},
	}
}
