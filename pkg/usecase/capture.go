package usecase

import (
	"context"

	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"golang.org/x/sync/errgroup"
)

// CaptureResult is the outcome of one reference in a batch capture
type CaptureResult struct {
	Input   string
	Insight *model.Insight
	Err     error
}

// CaptureAll captures inputs concurrently with at most concurrency requests in
// flight. Results are returned in input order; the store receives insights in
// completion order. A failed input does not stop the others.
func (uc *InsightUseCase) CaptureAll(ctx context.Context, inputs []string, concurrency int) []CaptureResult {
	results := make([]CaptureResult, len(inputs))

	var eg errgroup.Group
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	for i, input := range inputs {
		eg.Go(func() error {
			insight, err := uc.GenerateFromReference(ctx, input)
			results[i] = CaptureResult{Input: input, Insight: insight, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
