package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InsightCollection is the collection name used when no prefix is configured
const InsightCollection = "insights"

// insightDocument adds the insertion sequence used for most-recent-first listing.
// Timestamp alone is not enough because two captures may share a clock tick.
type insightDocument struct {
	model.Insight
	Seq int64 `firestore:"Seq"`
}

type insightRepository struct {
	client           *firestore.Client
	collectionPrefix string
	now              func() time.Time
}

func newInsightRepository(client *firestore.Client) *insightRepository {
	return &insightRepository{
		client: client,
		now:    time.Now,
	}
}

// CollectionName returns the collection name of base under prefix
func CollectionName(prefix, base string) string {
	if prefix != "" {
		return prefix + "_" + base
	}
	return base
}

func (r *insightRepository) insightsCollection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, InsightCollection))
}

func (r *insightRepository) List(ctx context.Context, filter model.InsightFilter) ([]*model.Insight, error) {
	query := r.insightsCollection().Query
	if filter.Platform != "" {
		query = query.Where("Platform", "==", filter.Platform.String())
	}

	iter := query.OrderBy("Seq", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	insights := []*model.Insight{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate insights")
		}

		var data insightDocument
		if err := doc.DataTo(&data); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal insight",
				goerr.V("doc_id", doc.Ref.ID))
		}
		insight := data.Insight
		insights = append(insights, &insight)
	}

	return insights, nil
}

func (r *insightRepository) Get(ctx context.Context, id model.InsightID) (*model.Insight, error) {
	doc, err := r.insightsCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "insight not found",
				goerr.V(model.InsightIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get insight", goerr.V(model.InsightIDKey, id))
	}

	var data insightDocument
	if err := doc.DataTo(&data); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal insight", goerr.V(model.InsightIDKey, id))
	}
	insight := data.Insight
	return &insight, nil
}

func (r *insightRepository) Insert(ctx context.Context, insight *model.Insight) error {
	if err := insight.Validate(); err != nil {
		return goerr.Wrap(err, "refusing to store invalid insight")
	}

	doc := &insightDocument{
		Insight: *insight,
		Seq:     r.now().UnixNano(),
	}

	if _, err := r.insightsCollection().Doc(insight.ID.String()).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(err, "insight already exists", goerr.V(model.InsightIDKey, insight.ID))
		}
		return goerr.Wrap(err, "failed to create insight", goerr.V(model.InsightIDKey, insight.ID))
	}
	return nil
}

func (r *insightRepository) Delete(ctx context.Context, id model.InsightID) error {
	ref := r.insightsCollection().Doc(id.String())
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "insight not found",
					goerr.V(model.InsightIDKey, id))
			}
			return goerr.Wrap(err, "failed to get insight")
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete insight", goerr.V(model.InsightIDKey, id))
	}
	return nil
}
