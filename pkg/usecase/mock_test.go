package usecase_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/audio"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"github.com/secmon-lab/gathsalt/pkg/service/reference"
	goslack "github.com/slack-go/slack"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{
		Texts: []string{"{}"},
	}, nil
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

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// newReplyClient returns a client whose sessions answer every request with
// reply, recording the text inputs it received
func newReplyClient(reply string, prompts *[]string) *mockLLMClient {
	var mu sync.Mutex
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if prompts != nil {
						mu.Lock()
						for _, in := range input {
							if text, ok := in.(gollem.Text); ok {
								*prompts = append(*prompts, string(text))
							}
						}
						mu.Unlock()
					}
					return &gollem.Response{Texts: []string{reply}}, nil
				},
			}, nil
		},
	}
}

// mockGemini is a mock gemini.Service for testing
type mockGemini struct {
	analyzeImageFn func(ctx context.Context, req gemini.ImageRequest) (string, error)
	speakFn        func(ctx context.Context, text, voice string) ([]byte, error)
	researchFn     func(ctx context.Context, prompt string) (*gemini.ResearchResult, error)

	analyzeCalls  atomic.Int32
	speakCalls    atomic.Int32
	researchCalls atomic.Int32
}

var _ gemini.Service = &mockGemini{}

func (m *mockGemini) AnalyzeImage(ctx context.Context, req gemini.ImageRequest) (string, error) {
	m.analyzeCalls.Add(1)
	if m.analyzeImageFn != nil {
		return m.analyzeImageFn(ctx, req)
	}
	return "{}", nil
}

func (m *mockGemini) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	m.speakCalls.Add(1)
	if m.speakFn != nil {
		return m.speakFn(ctx, text, voice)
	}
	return nil, nil
}

func (m *mockGemini) Research(ctx context.Context, prompt string) (*gemini.ResearchResult, error) {
	m.researchCalls.Add(1)
	if m.researchFn != nil {
		return m.researchFn(ctx, prompt)
	}
	return &gemini.ResearchResult{}, nil
}

// mockReference is a mock reference.Service for testing
type mockReference struct {
	fetchFn func(ctx context.Context, ref string) (*reference.Page, error)
}

func (m *mockReference) Fetch(ctx context.Context, ref string) (*reference.Page, error) {
	return m.fetchFn(ctx, ref)
}

// mockPlayer records played buffers
type mockPlayer struct {
	mu     sync.Mutex
	played []*audio.Buffer
}

func (p *mockPlayer) Play(ctx context.Context, buf *audio.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, buf)
	return nil
}

// mockSlack is a mock slack.Service for testing
type mockSlack struct {
	mu     sync.Mutex
	posted []string
	done   chan struct{}
}

func (m *mockSlack) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	m.mu.Lock()
	m.posted = append(m.posted, channelID+":"+text)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return "1700000000.000100", nil
}

// mockNotion is a mock notion.Service for testing
type mockNotion struct {
	created []model.InsightID
}

func (m *mockNotion) CreateInsightPage(ctx context.Context, dbID string, insight *model.Insight) (string, error) {
	m.created = append(m.created, insight.ID)
	return "https://www.notion.so/" + dbID + "/" + insight.ID.String(), nil
}

// pngDataURI returns a small valid PNG image as a data URI
func pngDataURI() string {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return model.BuildDataURI("image/png", buf.Bytes())
}
