package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
)

// insightRepository holds the ordered collection as an immutable slice. Every
// mutation builds a new slice and swaps the reference, so readers never observe
// a partially updated collection.
type insightRepository struct {
	mu        sync.RWMutex
	insights  []*model.Insight
	persister Persister
}

func newInsightRepository(p Persister) *insightRepository {
	return &insightRepository{
		insights:  []*model.Insight{},
		persister: p,
	}
}

// copyInsight creates a deep copy of an insight
func copyInsight(i *model.Insight) *model.Insight {
	copied := *i
	if i.KeyTakeaways != nil {
		copied.KeyTakeaways = make([]string, len(i.KeyTakeaways))
		copy(copied.KeyTakeaways, i.KeyTakeaways)
	}
	return &copied
}

func (r *insightRepository) load(ctx context.Context) error {
	data, err := r.persister.Load(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to load insight snapshot")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var insights []*model.Insight
	if err := json.Unmarshal(data, &insights); err != nil {
		return goerr.Wrap(err, "failed to parse insight snapshot")
	}
	if insights == nil {
		insights = []*model.Insight{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.insights = insights
	return nil
}

// replace persists next (when a persister is set) and then swaps it in.
// Caller must hold r.mu.
func (r *insightRepository) replace(ctx context.Context, next []*model.Insight) error {
	if r.persister != nil {
		data, err := json.Marshal(next)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal insight snapshot")
		}
		if err := r.persister.Save(ctx, data); err != nil {
			return goerr.Wrap(err, "failed to save insight snapshot")
		}
	}
	r.insights = next
	return nil
}

func (r *insightRepository) List(ctx context.Context, filter model.InsightFilter) ([]*model.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Insight, 0, len(r.insights))
	for _, i := range r.insights {
		if filter.Match(i) {
			result = append(result, copyInsight(i))
		}
	}
	return result, nil
}

func (r *insightRepository) Get(ctx context.Context, id model.InsightID) (*model.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, i := range r.insights {
		if i.ID == id {
			return copyInsight(i), nil
		}
	}
	return nil, goerr.Wrap(ErrNotFound, "insight not found", goerr.V(model.InsightIDKey, id))
}

func (r *insightRepository) Insert(ctx context.Context, insight *model.Insight) error {
	if err := insight.Validate(); err != nil {
		return goerr.Wrap(err, "refusing to store invalid insight")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.insights, func(i *model.Insight) bool { return i.ID == insight.ID }) {
		return goerr.New("insight already exists", goerr.V(model.InsightIDKey, insight.ID))
	}

	next := make([]*model.Insight, 0, len(r.insights)+1)
	next = append(next, copyInsight(insight))
	next = append(next, r.insights...)
	return r.replace(ctx, next)
}

func (r *insightRepository) Delete(ctx context.Context, id model.InsightID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.insights, func(i *model.Insight) bool { return i.ID == id })
	if idx < 0 {
		return goerr.Wrap(ErrNotFound, "insight not found", goerr.V(model.InsightIDKey, id))
	}

	next := make([]*model.Insight, 0, len(r.insights)-1)
	next = append(next, r.insights[:idx]...)
	next = append(next, r.insights[idx+1:]...)
	return r.replace(ctx, next)
}
