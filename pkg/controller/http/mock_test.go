package http_test

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
)

type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockLLMSession{generateContentFn: c.generateContentFn}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func replyClient(reply string) *mockLLMClient {
	return &mockLLMClient{
		generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{reply}}, nil
		},
	}
}

type mockGemini struct {
	analyzeImageFn func(ctx context.Context, req gemini.ImageRequest) (string, error)
	speakFn        func(ctx context.Context, text, voice string) ([]byte, error)
	researchFn     func(ctx context.Context, prompt string) (*gemini.ResearchResult, error)
}

func (m *mockGemini) AnalyzeImage(ctx context.Context, req gemini.ImageRequest) (string, error) {
	if m.analyzeImageFn != nil {
		return m.analyzeImageFn(ctx, req)
	}
	return "{}", nil
}

func (m *mockGemini) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	if m.speakFn != nil {
		return m.speakFn(ctx, text, voice)
	}
	return nil, nil
}

func (m *mockGemini) Research(ctx context.Context, prompt string) (*gemini.ResearchResult, error) {
	if m.researchFn != nil {
		return m.researchFn(ctx, prompt)
	}
	return &gemini.ResearchResult{}, nil
}

func pngBytes() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// mockNotion is a mock notion.Service for testing
type mockNotion struct{}

func (m *mockNotion) CreateInsightPage(ctx context.Context, dbID string, insight *model.Insight) (string, error) {
	return "https://www.notion.so/" + dbID + "/" + insight.ID.String(), nil
}
