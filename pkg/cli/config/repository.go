package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/repository/file"
	"github.com/secmon-lab/gathsalt/pkg/repository/firestore"
	"github.com/secmon-lab/gathsalt/pkg/repository/gcs"
	"github.com/secmon-lab/gathsalt/pkg/repository/memory"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendGCS       = "gcs"
	BackendFirestore = "firestore"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	filePath         string
	gcsBucket        string
	gcsObject        string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, file, gcs or firestore)",
			Category:    "Repository",
			Value:       BackendFile,
			Sources:     cli.EnvVars("GATHSALT_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "file-path",
			Usage:       "Path of the insight store file (file backend)",
			Category:    "Repository",
			Value:       "gathsalt-insights.json",
			Sources:     cli.EnvVars("GATHSALT_FILE_PATH"),
			Destination: &r.filePath,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket of the insight store (gcs backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("GATHSALT_GCS_BUCKET"),
			Destination: &r.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-object",
			Usage:       "Cloud Storage object of the insight store (gcs backend)",
			Category:    "Repository",
			Value:       "insights.json",
			Sources:     cli.EnvVars("GATHSALT_GCS_OBJECT"),
			Destination: &r.gcsObject,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("GATHSALT_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("GATHSALT_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("GATHSALT_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

// LogAttrs returns log attributes for the repository configuration
func (r *Repository) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("backend", r.backend)}
	switch r.backend {
	case BackendFile:
		attrs = append(attrs, slog.String("path", r.filePath))
	case BackendGCS:
		attrs = append(attrs, slog.String("bucket", r.gcsBucket), slog.String("object", r.gcsObject))
	case BackendFirestore:
		attrs = append(attrs, slog.String("project_id", r.projectID), slog.String("database_id", r.databaseID))
	}
	return attrs
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendGCS:
		if r.gcsBucket == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gcs-bucket is required when using gcs backend")
		}
		repo, err := gcs.New(ctx, r.gcsBucket, r.gcsObject)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs repository")
		}
		logging.Default().Info("Using Cloud Storage repository", "bucket", r.gcsBucket, "object", r.gcsObject)
		return repo, nil

	case BackendFile:
		if r.filePath == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "file-path is required when using file backend")
		}
		repo, err := file.New(ctx, r.filePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file repository")
		}
		logging.Default().Info("Using file repository", "path", r.filePath)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}
