package gemini_test

import (
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"google.golang.org/genai"
)

func TestInlineData(t *testing.T) {
	t.Run("returns first inline payload", func(t *testing.T) {
		resp := gemini.ResponseFromParts(
			genai.NewPartFromText("preamble"),
			genai.NewPartFromBytes([]byte{1, 2, 3, 4}, "audio/pcm"),
			genai.NewPartFromBytes([]byte{9, 9}, "audio/pcm"),
		)
		gt.A(t, gemini.InlineData(resp)).Equal([]byte{1, 2, 3, 4})
	})

	t.Run("returns nil without inline data", func(t *testing.T) {
		resp := gemini.ResponseFromParts(genai.NewPartFromText("no audio here"))
		gt.V(t, gemini.InlineData(resp)).Nil()
	})

	t.Run("returns nil without candidates", func(t *testing.T) {
		gt.V(t, gemini.InlineData(&genai.GenerateContentResponse{})).Nil()
		gt.V(t, gemini.InlineData(nil)).Nil()
	})
}

func TestGroundingReferences(t *testing.T) {
	resp := gemini.ResponseFromParts(genai.NewPartFromText("analysis"))
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{Title: "Ref", URI: "http://a"}},
			{Web: &genai.GroundingChunkWeb{Title: "NoURI"}},
			{},
		},
	}

	refs := gemini.GroundingReferences(resp)
	gt.A(t, refs).Length(2)
	gt.V(t, refs[0]).Equal(gemini.Reference{Title: "Ref", URI: "http://a"})
	gt.V(t, refs[1]).Equal(gemini.Reference{Title: "NoURI"})

	gt.A(t, gemini.GroundingReferences(gemini.ResponseFromParts())).Length(0)
}

func TestNew(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		_, err := gemini.New(t.Context(), gemini.Config{})
		gt.Error(t, err)
	})

	t.Run("grounded research", func(t *testing.T) {
		project := os.Getenv("TEST_GEMINI_PROJECT")
		if project == "" {
			t.Skip("TEST_GEMINI_PROJECT not set")
		}
		svc, err := gemini.New(t.Context(), gemini.Config{Project: project, Location: "us-central1"})
		gt.NoError(t, err).Required()

		result, err := svc.Research(t.Context(), "What is the capital of France?")
		gt.NoError(t, err).Required()
		gt.String(t, result.Text).NotEqual("")
	})
}
