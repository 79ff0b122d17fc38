package usecase

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"github.com/secmon-lab/gathsalt/pkg/service/reference"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// InsightObserver is notified after the insight store changes
type InsightObserver interface {
	InsightCreated(ctx context.Context, insight *model.Insight)
	InsightDeleted(ctx context.Context, id model.InsightID)
}

// InsightUseCase captures insights from references and media and manages the store
type InsightUseCase struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	gemini    gemini.Service
	reference reference.Service
	guard     *InFlight
	observers []InsightObserver
}

// NewInsightUseCase creates a new InsightUseCase. refService may be nil to
// disable reference enrichment.
func NewInsightUseCase(repo interfaces.Repository, llmClient gollem.LLMClient, geminiService gemini.Service, refService reference.Service) *InsightUseCase {
	return &InsightUseCase{
		repo:      repo,
		llmClient: llmClient,
		gemini:    geminiService,
		reference: refService,
		guard:     NewInFlight(),
	}
}

// Observe registers an observer of store changes
func (uc *InsightUseCase) Observe(o InsightObserver) {
	uc.observers = append(uc.observers, o)
}

// acquireSubmission guards the capture submission point of the requesting user.
// Requests without a bound user, such as batch captures from the CLI, are not
// guarded.
func (uc *InsightUseCase) acquireSubmission(ctx context.Context) (func(), error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return func() {}, nil
	}
	return uc.guard.Acquire("capture:" + user.Subject())
}

// GenerateFromReference analyzes a URL or pasted text and stores the result at
// the head of the store. A malformed model reply is not an error: every missing
// field falls back to its default. Only a transport failure returns
// ErrGeneration, and then the store is left unchanged.
func (uc *InsightUseCase) GenerateFromReference(ctx context.Context, input string) (*model.Insight, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "reference is empty")
	}
	if uc.llmClient == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "LLM client is not configured")
	}

	release, err := uc.acquireSubmission(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	prompt, err := render(referencePrompt, referencePromptData{
		Source: input,
		Page:   uc.enrich(ctx, input),
	})
	if err != nil {
		return nil, err
	}

	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(insightParameter()),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrGeneration, "failed to create LLM session",
			goerr.V(InputKey, input), goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(ErrGeneration, "failed to generate insight",
			goerr.V(InputKey, input), goerr.V("cause", err.Error()))
	}

	reply := parseInsightReply(responseText(resp))
	insight := model.NewReferenceInsight(input, reply.content(FallbackSummary))

	if err := uc.store(ctx, insight); err != nil {
		return nil, err
	}
	return insight, nil
}

// enrich fetches page metadata for http(s) references. Failures only disable
// enrichment for this request.
func (uc *InsightUseCase) enrich(ctx context.Context, input string) *reference.Page {
	if uc.reference == nil || !reference.IsFetchable(input) {
		return nil
	}

	page, err := uc.reference.Fetch(ctx, input)
	if err != nil {
		logging.From(ctx).Warn("reference enrichment skipped", "error", err.Error(), "input", input)
		return nil
	}
	if page.IsEmpty() {
		return nil
	}
	return page
}

// AnalyzeMedia analyzes an uploaded image given as a data URI. The stored
// insight keeps the original data URI and is always tagged MEDIA. mimeType
// overrides the type declared by the data URI when set.
func (uc *InsightUseCase) AnalyzeMedia(ctx context.Context, dataURI, mimeType string) (*model.Insight, error) {
	if uc.gemini == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "Gemini service is not configured")
	}

	uri, err := model.ParseDataURI(dataURI)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidMedia, "failed to parse data URI", goerr.V("cause", err.Error()))
	}
	if mimeType == "" {
		mimeType = uri.MIMEType
	}

	detected, err := sniffImage(uri.Data, mimeType)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = detected
	}

	release, err := uc.acquireSubmission(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	text, err := uc.gemini.AnalyzeImage(ctx, gemini.ImageRequest{
		Instruction: mediaPrompt,
		Data:        uri.Data,
		MIMEType:    mimeType,
		Schema:      insightSchema(),
	})
	if err != nil {
		return nil, goerr.Wrap(ErrGeneration, "failed to analyze media",
			goerr.V(model.MIMETypeKey, mimeType), goerr.V("cause", err.Error()))
	}

	reply := parseInsightReply(text)
	insight := model.NewMediaInsight(dataURI, reply.content(FallbackMediaSummary))

	if err := uc.store(ctx, insight); err != nil {
		return nil, err
	}
	return insight, nil
}

// isoImageBrands maps ISO base media file brands to the image types Gemini
// accepts. The standard image decoders cannot read these containers.
var isoImageBrands = map[string]string{
	"heic": "image/heic",
	"heix": "image/heic",
	"heim": "image/heic",
	"heis": "image/heic",
	"hevc": "image/heic",
	"hevx": "image/heic",
	"mif1": "image/heif",
	"msf1": "image/heif",
	"heif": "image/heif",
	"avif": "image/avif",
	"avis": "image/avif",
}

// sniffImage returns the image MIME type of data. Formats without a decoder
// are recognized by signature, and an unrecognized binary payload is trusted
// when declared as image/*. Text and other known non-image content is
// rejected.
func sniffImage(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", goerr.Wrap(ErrInvalidMedia, "image payload is empty")
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if cfg.Width == 0 || cfg.Height == 0 {
			return "", goerr.Wrap(ErrInvalidMedia, "image has no pixels", goerr.V("format", format))
		}
		return "image/" + format, nil
	}

	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		if mimeType, ok := isoImageBrands[string(data[8:12])]; ok {
			return mimeType, nil
		}
	}

	detected := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(detected, "image/"):
		return detected, nil
	case detected == "application/octet-stream" && strings.HasPrefix(declared, "image/"):
		return declared, nil
	}
	return "", goerr.Wrap(ErrInvalidMedia, "payload is not a supported image",
		goerr.V("detected", detected), goerr.V(model.MIMETypeKey, declared))
}

func (uc *InsightUseCase) store(ctx context.Context, insight *model.Insight) error {
	if err := uc.repo.Insight().Insert(ctx, insight); err != nil {
		return goerr.Wrap(err, "failed to store insight", goerr.V(InsightIDKey, insight.ID))
	}

	logging.From(ctx).Info("insight captured",
		"insight_id", insight.ID,
		"platform", insight.Platform,
		"sentiment", insight.Sentiment,
	)

	for _, o := range uc.observers {
		o.InsightCreated(ctx, insight)
	}
	return nil
}

// List returns stored insights, most recent first
func (uc *InsightUseCase) List(ctx context.Context, filter model.InsightFilter) ([]*model.Insight, error) {
	insights, err := uc.repo.Insight().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list insights")
	}
	return insights, nil
}

// Get returns one insight
func (uc *InsightUseCase) Get(ctx context.Context, id model.InsightID) (*model.Insight, error) {
	insight, err := uc.repo.Insight().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get insight", goerr.V(InsightIDKey, id))
	}
	return insight, nil
}

// Delete removes an insight. Observers drop any per-insight state they hold.
func (uc *InsightUseCase) Delete(ctx context.Context, id model.InsightID) error {
	if err := uc.repo.Insight().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete insight", goerr.V(InsightIDKey, id))
	}

	logging.From(ctx).Info("insight deleted", "insight_id", id)

	for _, o := range uc.observers {
		o.InsightDeleted(ctx, id)
	}
	return nil
}
