package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/feed"
	"github.com/secmon-lab/gathsalt/pkg/service/worker"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// ErrCaptureFailed is returned when at least one input of a batch failed
var ErrCaptureFailed = goerr.New("capture failed")

func cmdCapture() *cli.Command {
	return &cli.Command{
		Name:    "capture",
		Aliases: []string{"c"},
		Usage:   "Capture insights from a terminal",
		Commands: []*cli.Command{
			cmdCaptureURL(),
			cmdCaptureMedia(),
			cmdCaptureFeed(),
		},
	}
}

func cmdCaptureURL() *cli.Command {
	var rt runtime

	return &cli.Command{
		Name:      "url",
		Usage:     "Capture insights from URLs or free text references",
		ArgsUsage: "<reference>...",
		Flags:     rt.Flags(needLLM | needExport),
		Action: func(ctx context.Context, c *cli.Command) error {
			inputs := c.Args().Slice()
			if len(inputs) == 0 {
				return goerr.Wrap(usecase.ErrInvalidInput, "at least one reference is required")
			}

			uc, closer, err := rt.build(ctx, needLLM|needExport)
			if err != nil {
				return err
			}
			defer closer()

			results := uc.Insight.CaptureAll(ctx, inputs, uc.AppConfig().Capture.Concurrency)
			return printCaptureResults(ctx, output(c), results)
		},
	}
}

func cmdCaptureFeed() *cli.Command {
	var rt runtime
	var limit int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of feed entries to capture (0 uses the configured feed limit)",
			Sources:     cli.EnvVars("GATHSALT_FEED_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, rt.Flags(needLLM|needExport)...)

	return &cli.Command{
		Name:      "feed",
		Usage:     "Capture insights from the entries of an RSS or Atom feed",
		ArgsUsage: "<feed-url>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			feedURL := c.Args().First()
			if feedURL == "" {
				return goerr.Wrap(usecase.ErrInvalidInput, "feed URL is required")
			}

			uc, closer, err := rt.build(ctx, needLLM|needExport)
			if err != nil {
				return err
			}
			defer closer()

			if limit <= 0 {
				limit = uc.AppConfig().Capture.FeedLimit
			}

			links, err := feedLinks(ctx, feed.New(), feedURL, limit)
			if err != nil {
				return err
			}
			logging.From(ctx).Info("Capturing feed entries", "feed", feedURL, "entries", len(links))

			results := uc.Insight.CaptureAll(ctx, links, uc.AppConfig().Capture.Concurrency)
			return printCaptureResults(ctx, output(c), results)
		},
	}
}

// feedLinks returns the entry links of a feed, up to limit entries
func feedLinks(ctx context.Context, svc feed.Service, feedURL string, limit int) ([]string, error) {
	entries, err := svc.Entries(ctx, feedURL, limit)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(entries))
	for _, e := range entries {
		links = append(links, e.Link)
	}
	return links, nil
}

// capturedLinks captures links and returns the ones that were stored
func capturedLinks(uc *usecase.UseCases) worker.CaptureFunc {
	return func(ctx context.Context, links []string) []string {
		results := uc.Insight.CaptureAll(ctx, links, uc.AppConfig().Capture.Concurrency)

		var ok []string
		for _, r := range results {
			if r.Err != nil {
				logging.From(ctx).Warn("failed to capture feed entry", "link", r.Input, "error", r.Err)
				continue
			}
			ok = append(ok, r.Input)
		}
		return ok
	}
}

func cmdCaptureMedia() *cli.Command {
	var rt runtime
	var mimeType string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "mime-type",
			Usage:       "MIME type of the image (detected from content when empty)",
			Destination: &mimeType,
		},
	}
	flags = append(flags, rt.Flags(needGemini|needExport)...)

	return &cli.Command{
		Name:      "media",
		Usage:     "Capture an insight from an image file",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.Wrap(usecase.ErrInvalidInput, "image file is required")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read image file", goerr.V("path", path))
			}
			if mimeType == "" {
				mimeType = http.DetectContentType(data)
			}

			uc, closer, err := rt.build(ctx, needGemini|needExport)
			if err != nil {
				return err
			}
			defer closer()

			insight, err := uc.Insight.AnalyzeMedia(ctx, model.BuildDataURI(mimeType, data), mimeType)
			results := []usecase.CaptureResult{{Input: path, Insight: insight, Err: err}}
			return printCaptureResults(ctx, output(c), results)
		},
	}
}

func printCaptureResults(ctx context.Context, w io.Writer, results []usecase.CaptureResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logging.From(ctx).Error("capture failed", "input", r.Input, "error", r.Err)
			_, _ = fmt.Fprintf(w, "%s %s\n", color.RedString("FAILED"), r.Input)
			continue
		}
		printInsight(w, r.Insight)
	}

	if failed > 0 {
		return goerr.Wrap(ErrCaptureFailed, "some inputs could not be captured",
			goerr.V("failed", failed), goerr.V("total", len(results)))
	}
	return nil
}
