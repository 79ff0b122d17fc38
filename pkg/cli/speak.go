package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/service/audio"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSpeak() *cli.Command {
	var rt runtime
	var out string
	var voice string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Path of the WAV file to write",
			Value:       "speech.wav",
			Destination: &out,
		},
		&cli.StringFlag{
			Name:        "voice",
			Usage:       "Prebuilt voice name (configured voice when empty)",
			Destination: &voice,
		},
	}
	flags = append(flags, rt.Flags(needGemini)...)

	return &cli.Command{
		Name:      "speak",
		Usage:     "Narrate text and write the audio to a WAV file",
		ArgsUsage: "<text>...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return goerr.Wrap(usecase.ErrInvalidInput, "text is required")
			}

			uc, closer, err := rt.build(ctx, needGemini)
			if err != nil {
				return err
			}
			defer closer()

			f, err := os.Create(out)
			if err != nil {
				return goerr.Wrap(err, "failed to create output file", goerr.V("path", out))
			}

			player := audio.NewWAVPlayer(f)
			err = uc.Speech.Speak(ctx, "cli", text, voice, player)
			safe.Close(ctx, f)

			if !player.Played() {
				safe.Remove(ctx, out)
			}
			if errors.Is(err, usecase.ErrNoAudioReturned) {
				logging.From(ctx).Warn("no audio returned, nothing written", "error", err)
				return nil
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(output(c), "wrote %s\n", out)
			return nil
		},
	}
}
