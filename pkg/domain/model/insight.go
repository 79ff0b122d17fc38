package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
)

// InsightID is a UUID-based identifier for Insight
type InsightID string

// NewInsightID generates a new UUID v4 InsightID
func NewInsightID() InsightID {
	return InsightID(uuid.New().String())
}

func (id InsightID) String() string {
	return string(id)
}

// Insight is one unit of captured intelligence. It is created once by the capture
// use cases and never mutated afterwards.
//
// Exactly one of SourceURL and MediaData is set: SourceURL for reference captures,
// MediaData (a data URI) for media captures.
type Insight struct {
	ID           InsightID       `json:"id" firestore:"ID"`
	SourceURL    string          `json:"sourceUrl,omitempty" firestore:"SourceURL,omitempty"`
	MediaData    string          `json:"mediaData,omitempty" firestore:"MediaData,omitempty"`
	Platform     types.Platform  `json:"platform" firestore:"Platform"`
	Summary      string          `json:"summary" firestore:"Summary"`
	Explanation  string          `json:"explanation" firestore:"Explanation"`
	Sentiment    types.Sentiment `json:"sentiment" firestore:"Sentiment"`
	KeyTakeaways []string        `json:"keyTakeaways" firestore:"KeyTakeaways"`
	Timestamp    time.Time       `json:"timestamp" firestore:"Timestamp"`
}

// InsightContent holds the analyst-produced fields of an Insight
type InsightContent struct {
	Platform     types.Platform
	Summary      string
	Explanation  string
	Sentiment    types.Sentiment
	KeyTakeaways []string
}

// NewReferenceInsight creates an Insight captured from a URL or text reference
func NewReferenceInsight(ref string, content InsightContent) *Insight {
	return newInsight(content, func(i *Insight) { i.SourceURL = ref })
}

// NewMediaInsight creates an Insight captured from an uploaded image. The platform
// is always PlatformMedia regardless of content.Platform.
func NewMediaInsight(dataURI string, content InsightContent) *Insight {
	content.Platform = types.PlatformMedia
	return newInsight(content, func(i *Insight) { i.MediaData = dataURI })
}

func newInsight(content InsightContent, origin func(*Insight)) *Insight {
	takeaways := content.KeyTakeaways
	if takeaways == nil {
		takeaways = []string{}
	}

	i := &Insight{
		ID:           NewInsightID(),
		Platform:     content.Platform,
		Summary:      content.Summary,
		Explanation:  content.Explanation,
		Sentiment:    content.Sentiment,
		KeyTakeaways: takeaways,
		Timestamp:    time.Now().UTC(),
	}
	origin(i)
	return i
}

// IsMedia reports whether the insight was captured from media
func (i *Insight) IsMedia() bool {
	return i.MediaData != ""
}

// Validate checks that every required field is populated
func (i *Insight) Validate() error {
	if i.ID == "" {
		return goerr.Wrap(ErrInvalidInsight, "id is required")
	}
	if (i.SourceURL == "") == (i.MediaData == "") {
		return goerr.Wrap(ErrInvalidInsight, "exactly one of source URL and media data must be set",
			goerr.V(InsightIDKey, i.ID))
	}
	if !i.Platform.IsValid() {
		return goerr.Wrap(ErrInvalidInsight, "invalid platform",
			goerr.V(InsightIDKey, i.ID), goerr.V(PlatformKey, i.Platform))
	}
	if i.IsMedia() && i.Platform != types.PlatformMedia {
		return goerr.Wrap(ErrInvalidInsight, "media insight must be tagged MEDIA",
			goerr.V(InsightIDKey, i.ID), goerr.V(PlatformKey, i.Platform))
	}
	if i.Summary == "" || i.Explanation == "" {
		return goerr.Wrap(ErrInvalidInsight, "summary and explanation are required",
			goerr.V(InsightIDKey, i.ID))
	}
	if !i.Sentiment.IsValid() {
		return goerr.Wrap(ErrInvalidInsight, "invalid sentiment",
			goerr.V(InsightIDKey, i.ID), goerr.V("sentiment", i.Sentiment))
	}
	if i.KeyTakeaways == nil {
		return goerr.Wrap(ErrInvalidInsight, "key takeaways must not be nil",
			goerr.V(InsightIDKey, i.ID))
	}
	if i.Timestamp.IsZero() {
		return goerr.Wrap(ErrInvalidInsight, "timestamp is required",
			goerr.V(InsightIDKey, i.ID))
	}
	return nil
}

// InsightFilter selects insights for listing. A zero Platform matches all.
type InsightFilter struct {
	Platform types.Platform
}

// Match reports whether the insight passes the filter
func (f InsightFilter) Match(i *Insight) bool {
	return f.Platform == "" || i.Platform == f.Platform
}
