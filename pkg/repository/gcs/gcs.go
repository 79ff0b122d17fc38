package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/repository/memory"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
	"google.golang.org/api/option"
)

// Persister stores the insight collection as a JSON array in one Cloud Storage object
type Persister struct {
	client *storage.Client
	bucket string
	object string
}

var _ memory.Persister = &Persister{}

// New opens the insight store at gs://bucket/object
func New(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*memory.Memory, error) {
	if bucket == "" || object == "" {
		return nil, goerr.New("bucket and object are required", goerr.V("bucket", bucket), goerr.V("object", object))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	repo, err := memory.NewPersistent(ctx, &Persister{client: client, bucket: bucket, object: object})
	if err != nil {
		safe.Close(ctx, client)
		return nil, err
	}
	return repo, nil
}

func (p *Persister) handle() *storage.ObjectHandle {
	return p.client.Bucket(p.bucket).Object(p.object)
}

func (p *Persister) Load(ctx context.Context) ([]byte, error) {
	r, err := p.handle().NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open insight object",
			goerr.V("bucket", p.bucket), goerr.V("object", p.object))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read insight object",
			goerr.V("bucket", p.bucket), goerr.V("object", p.object))
	}
	return data, nil
}

func (p *Persister) Save(ctx context.Context, data []byte) error {
	w := p.handle().NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		safe.Close(ctx, w)
		return goerr.Wrap(err, "failed to write insight object",
			goerr.V("bucket", p.bucket), goerr.V("object", p.object))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit insight object",
			goerr.V("bucket", p.bucket), goerr.V("object", p.object))
	}
	return nil
}

func (p *Persister) Close() error {
	return p.client.Close()
}
