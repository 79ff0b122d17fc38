package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"golang.org/x/sync/singleflight"
)

// DeepDiveUseCase runs grounded research on an insight. Results are memoized per
// insight until invalidated or until the insight is deleted, and concurrent
// requests for the same insight share one model call.
type DeepDiveUseCase struct {
	gemini gemini.Service

	group singleflight.Group
	mu    sync.RWMutex
	cache map[model.InsightID]*model.DeepDive
	// epoch advances on every invalidation; a research result started in an
	// older epoch is returned to its caller but never cached
	epoch map[model.InsightID]uint64
}

var _ InsightObserver = &DeepDiveUseCase{}

func NewDeepDiveUseCase(geminiService gemini.Service) *DeepDiveUseCase {
	return &DeepDiveUseCase{
		gemini: geminiService,
		cache:  make(map[model.InsightID]*model.DeepDive),
		epoch:  make(map[model.InsightID]uint64),
	}
}

// DeepDive returns the research expansion of insight, calling the model at most
// once per insight while the result is cached
func (uc *DeepDiveUseCase) DeepDive(ctx context.Context, insight *model.Insight) (*model.DeepDive, error) {
	if uc.gemini == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "Gemini service is not configured")
	}

	if cached, ok := uc.cached(insight.ID); ok {
		return cached, nil
	}

	v, err, _ := uc.group.Do(insight.ID.String(), func() (any, error) {
		if cached, ok := uc.cached(insight.ID); ok {
			return cached, nil
		}

		uc.mu.RLock()
		started := uc.epoch[insight.ID]
		uc.mu.RUnlock()

		result, err := uc.research(context.WithoutCancel(ctx), insight)
		if err != nil {
			return nil, err
		}

		uc.mu.Lock()
		if uc.epoch[insight.ID] == started {
			uc.cache[insight.ID] = result
		}
		uc.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return copyDeepDive(v.(*model.DeepDive)), nil
}

func (uc *DeepDiveUseCase) research(ctx context.Context, insight *model.Insight) (*model.DeepDive, error) {
	prompt, err := render(deepDivePrompt, deepDivePromptData{
		Summary:     insight.Summary,
		Explanation: insight.Explanation,
		Source:      insight.SourceURL,
	})
	if err != nil {
		return nil, err
	}

	resp, err := uc.gemini.Research(ctx, prompt)
	if err != nil {
		return nil, goerr.Wrap(ErrResearch, "failed to research insight",
			goerr.V(InsightIDKey, insight.ID), goerr.V("cause", err.Error()))
	}

	return buildDeepDive(resp), nil
}

// buildDeepDive keeps only references that carry a URI. A missing title falls
// back to the URI.
func buildDeepDive(resp *gemini.ResearchResult) *model.DeepDive {
	result := &model.DeepDive{
		Analysis: strings.TrimSpace(resp.Text),
		Sources:  []model.DeepDiveSource{},
	}
	if result.Analysis == "" {
		result.Analysis = FallbackDeepDive
	}

	for _, ref := range resp.References {
		uri := strings.TrimSpace(ref.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(ref.Title)
		if title == "" {
			title = uri
		}
		result.Sources = append(result.Sources, model.DeepDiveSource{Title: title, URI: uri})
	}
	return result
}

func (uc *DeepDiveUseCase) cached(id model.InsightID) (*model.DeepDive, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	v, ok := uc.cache[id]
	if !ok {
		return nil, false
	}
	return copyDeepDive(v), true
}

func copyDeepDive(d *model.DeepDive) *model.DeepDive {
	copied := *d
	copied.Sources = make([]model.DeepDiveSource, len(d.Sources))
	copy(copied.Sources, d.Sources)
	return &copied
}

// Invalidate drops the cached result so the next DeepDive calls the model
// again. A research call already in flight is not cached when it completes.
func (uc *DeepDiveUseCase) Invalidate(id model.InsightID) {
	uc.mu.Lock()
	delete(uc.cache, id)
	uc.epoch[id]++
	uc.mu.Unlock()

	uc.group.Forget(id.String())
}

func (uc *DeepDiveUseCase) InsightCreated(ctx context.Context, insight *model.Insight) {}

func (uc *DeepDiveUseCase) InsightDeleted(ctx context.Context, id model.InsightID) {
	uc.Invalidate(id)
}
