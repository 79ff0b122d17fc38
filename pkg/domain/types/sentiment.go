package types

import "strings"

// Sentiment is the overall tone of a captured insight
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// IsValid checks if the sentiment is valid
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

func (s Sentiment) String() string {
	return string(s)
}

// NormalizeSentiment returns the sentiment named by s, or SentimentNeutral
// when s is empty or unrecognized.
func NormalizeSentiment(s string) Sentiment {
	v := Sentiment(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return SentimentNeutral
	}
	return v
}
