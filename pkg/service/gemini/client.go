package gemini

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.5-pro"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
)

// client implements Service interface
type client struct {
	genai       *genai.Client
	model       string
	speechModel string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithModel sets the model used for image analysis and research
func WithModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSpeechModel sets the text-to-speech model
func WithSpeechModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.speechModel = model
		}
	}
}

// Config selects the backend. APIKey selects the Gemini Developer API; otherwise
// Project and Location select Vertex AI with application default credentials.
type Config struct {
	APIKey   string
	Project  string
	Location string
}

// New creates a Gemini service. One client is built here and reused for every
// request.
func New(ctx context.Context, cfg Config, opts ...Option) (Service, error) {
	var clientCfg *genai.ClientConfig
	switch {
	case cfg.APIKey != "":
		clientCfg = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	case cfg.Project != "":
		clientCfg = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	default:
		return nil, goerr.New("either API key or project is required for Gemini")
	}

	gc, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client",
			goerr.V("project", cfg.Project),
			goerr.V("location", cfg.Location))
	}

	c := &client{
		genai:       gc,
		model:       DefaultModel,
		speechModel: DefaultSpeechModel,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) AnalyzeImage(ctx context.Context, req ImageRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", goerr.New("image data is empty")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Data, req.MIMEType),
			genai.NewPartFromText(req.Instruction),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", goerr.Wrap(err, "failed to analyze image",
			goerr.V("model", c.model),
			goerr.V("mime_type", req.MIMEType))
	}

	return resp.Text(), nil
}

func (c *client) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice,
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.speechModel, contents, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize speech",
			goerr.V("model", c.speechModel),
			goerr.V("voice", voice))
	}

	return inlineData(resp), nil
}

func (c *client) Research(ctx context.Context, prompt string) (*ResearchResult, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run grounded research", goerr.V("model", c.model))
	}

	return &ResearchResult{
		Text:       strings.TrimSpace(resp.Text()),
		References: groundingReferences(resp),
	}, nil
}

// inlineData returns the first inline binary payload of the first candidate
func inlineData(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data
		}
	}
	return nil
}

func groundingReferences(resp *genai.GenerateContentResponse) []Reference {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var refs []Reference
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		refs = append(refs, Reference{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return refs
}
