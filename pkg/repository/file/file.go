package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/repository/memory"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
)

// Persister stores the insight collection as a JSON array in a local file
type Persister struct {
	path string
}

var _ memory.Persister = &Persister{}

// New opens the insight store at path. The file is read once here and rewritten
// on every mutation; it is created on the first write.
func New(ctx context.Context, path string) (*memory.Memory, error) {
	if path == "" {
		return nil, goerr.New("file path is required")
	}
	return memory.NewPersistent(ctx, &Persister{path: path})
}

func (p *Persister) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read insight file", goerr.V("path", p.path))
	}
	return data, nil
}

// Save writes data to a temp file in the same directory and renames it over the
// store so a crash never leaves a truncated file behind.
func (p *Persister) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create store directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, ".insights-*.json")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", dir))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		safe.Close(ctx, tmp)
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", tmpPath))
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to replace insight file", goerr.V("path", p.path))
	}
	return nil
}
