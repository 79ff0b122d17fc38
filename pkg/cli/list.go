package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var sentimentColors = map[types.Sentiment]*color.Color{
	types.SentimentPositive: color.New(color.FgGreen),
	types.SentimentNeutral:  color.New(color.FgYellow),
	types.SentimentNegative: color.New(color.FgRed),
}

func printInsight(w io.Writer, insight *model.Insight) {
	c, ok := sentimentColors[insight.Sentiment]
	if !ok {
		c = color.New(color.Reset)
	}

	origin := insight.SourceURL
	if insight.IsMedia() {
		origin = "(media)"
	}

	_, _ = fmt.Fprintf(w, "%s  %-9s %s  %s\n",
		color.New(color.Faint).Sprint(insight.ID),
		insight.Platform,
		c.Sprintf("%-8s", insight.Sentiment),
		color.New(color.Bold).Sprint(insight.Summary),
	)
	_, _ = fmt.Fprintf(w, "    %s\n", origin)
	for _, t := range insight.KeyTakeaways {
		_, _ = fmt.Fprintf(w, "    - %s\n", t)
	}
}

// output returns the writer of the root command
func output(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return color.Output
}

func parsePlatformFilter(s string) (model.InsightFilter, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return model.InsightFilter{}, nil
	}
	p, err := types.ParsePlatform(s)
	if err != nil {
		return model.InsightFilter{}, goerr.Wrap(usecase.ErrInvalidInput, "unknown platform", goerr.V("platform", s))
	}
	return model.InsightFilter{Platform: p}, nil
}

func cmdList() *cli.Command {
	var rt runtime
	var platform string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "platform",
			Aliases:     []string{"p"},
			Usage:       "Show only one platform (all, X, FACEBOOK, INSTAGRAM, MEDIA, UNKNOWN)",
			Value:       "all",
			Destination: &platform,
		},
	}
	flags = append(flags, rt.Flags(0)...)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List captured insights, most recent first",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			filter, err := parsePlatformFilter(platform)
			if err != nil {
				return err
			}

			uc, closer, err := rt.build(ctx, 0)
			if err != nil {
				return err
			}
			defer closer()

			insights, err := uc.Insight.List(ctx, filter)
			if err != nil {
				return err
			}

			w := output(c)
			for _, insight := range insights {
				printInsight(w, insight)
			}
			return nil
		},
	}
}

func cmdDelete() *cli.Command {
	var rt runtime

	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a captured insight",
		ArgsUsage: "<id>",
		Flags:     rt.Flags(0),
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.Wrap(usecase.ErrInvalidInput, "insight ID is required")
			}

			uc, closer, err := rt.build(ctx, 0)
			if err != nil {
				return err
			}
			defer closer()

			if err := uc.Insight.Delete(ctx, model.InsightID(id)); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(output(c), "deleted %s\n", id)
			return nil
		},
	}
}
