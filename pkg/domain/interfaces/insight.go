package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
)

// ErrNotFound is returned by repositories when the requested insight does not exist
var ErrNotFound = goerr.New("insight not found")

// InsightRepository is the ordered insight store. Insights are kept most-recent-first
// by insertion (completion) order.
type InsightRepository interface {
	// List returns the insights matching filter, most recent first
	List(ctx context.Context, filter model.InsightFilter) ([]*model.Insight, error)

	// Get retrieves an insight by ID
	Get(ctx context.Context, id model.InsightID) (*model.Insight, error)

	// Insert places a new insight at the head of the store
	Insert(ctx context.Context, insight *model.Insight) error

	// Delete removes an insight by ID
	Delete(ctx context.Context, id model.InsightID) error
}
