package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	gollemgemini "github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"github.com/urfave/cli/v3"
)

// Gemini holds configuration for the Gemini clients. Structured capture and
// chat go through gollem on Vertex AI; media, speech and grounded research use
// the genai SDK, which also accepts a Developer API key.
type Gemini struct {
	projectID string
	location  string
	apiKey    string
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API (required for reference capture and chat)",
			Category:    "Gemini",
			Sources:     cli.EnvVars("GATHSALT_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GATHSALT_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key (media, speech and deep dive only)",
			Category:    "Gemini",
			Sources:     cli.EnvVars("GATHSALT_GEMINI_API_KEY", "GEMINI_API_KEY"),
			Destination: &g.apiKey,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.Bool("api_key", g.apiKey != ""),
	}
}

// ConfigureLLM creates the gollem client used for reference capture and chat.
// gollem only speaks to Vertex AI, so gemini-project is required even when an
// API key is configured for the genai backed features.
func (g *Gemini) ConfigureLLM(ctx context.Context, models GeminiSection) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, goerr.Wrap(ErrMissingGemini, "gemini-project is required for reference capture and chat")
	}

	client, err := gollemgemini.New(ctx, g.projectID, g.location, llmOptions(models)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.V("model", models.Model))
	}

	return client, nil
}

func llmOptions(models GeminiSection) []gollemgemini.Option {
	var opts []gollemgemini.Option
	if models.Model != "" {
		opts = append(opts, gollemgemini.WithModel(models.Model))
	}
	return opts
}

// ConfigureService creates the genai backed service used for media, speech
// and research. Model names come from the configuration file.
func (g *Gemini) ConfigureService(ctx context.Context, models GeminiSection) (gemini.Service, error) {
	if g.projectID == "" && g.apiKey == "" {
		return nil, goerr.Wrap(ErrMissingGemini, "gemini-project or gemini-api-key is required")
	}

	svc, err := gemini.New(ctx, gemini.Config{
		APIKey:   g.apiKey,
		Project:  g.projectID,
		Location: g.location,
	},
		gemini.WithModel(models.Model),
		gemini.WithSpeechModel(models.SpeechModel),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini service")
	}

	return svc, nil
}
