package memory

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
)

// ErrNotFound is returned when the requested insight does not exist
var ErrNotFound = interfaces.ErrNotFound

// Persister stores the whole insight collection as one serialized snapshot.
// Load returns nil data when nothing has been stored yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps the insight collection in process memory. With a Persister it
// becomes the snapshot store used by the file and gcs backends.
type Memory struct {
	insight   *insightRepository
	persister Persister
}

var _ interfaces.Repository = &Memory{}

// New creates a volatile in-memory repository
func New() *Memory {
	return &Memory{
		insight: newInsightRepository(nil),
	}
}

// NewPersistent creates a repository that reads the collection once from p and
// rewrites it on every mutation. A missing or empty snapshot starts an empty store.
func NewPersistent(ctx context.Context, p Persister) (*Memory, error) {
	if p == nil {
		return nil, goerr.New("persister is required")
	}

	repo := newInsightRepository(p)
	if err := repo.load(ctx); err != nil {
		return nil, err
	}

	return &Memory{
		insight:   repo,
		persister: p,
	}, nil
}

func (m *Memory) Insight() interfaces.InsightRepository {
	return m.insight
}

// Close releases the persister when it holds resources
func (m *Memory) Close() error {
	if c, ok := m.persister.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
