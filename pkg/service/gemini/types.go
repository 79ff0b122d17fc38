package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Service is the subset of the Gemini API used directly through genai: requests
// whose inputs or outputs (inline images, inline audio, grounding metadata) are
// not expressible through the text-only LLM session interface.
type Service interface {
	// AnalyzeImage sends an inline image with an instruction and returns the raw
	// JSON text of a reply constrained to schema. An empty reply yields "".
	AnalyzeImage(ctx context.Context, req ImageRequest) (string, error)

	// Speak returns raw 16-bit mono PCM at 24kHz for text. It returns nil data and
	// no error when the reply carries no inline audio.
	Speak(ctx context.Context, text, voice string) ([]byte, error)

	// Research runs a prompt with Google Search grounding enabled
	Research(ctx context.Context, prompt string) (*ResearchResult, error)
}

// ImageRequest is a structured-generation request over one inline image
type ImageRequest struct {
	Instruction string
	Data        []byte
	MIMEType    string
	Schema      *genai.Schema
}

// ResearchResult is the text reply of a grounded request with the web references
// the model cited. References are passed through as returned; entries may lack a
// title or URI.
type ResearchResult struct {
	Text       string
	References []Reference
}

// Reference is one grounding chunk pointing at a web page
type Reference struct {
	Title string
	URI   string
}
