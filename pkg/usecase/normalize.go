package usecase

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"google.golang.org/genai"
)

// Fallbacks applied when the model omits a field
const (
	FallbackSummary      = "Summary withheld."
	FallbackMediaSummary = "Visual capture processed."
	FallbackExplanation  = "No context provided."
	FallbackDeepDive     = "Analysis unavailable."
	FallbackChatAnswer   = "Analysis failure."
)

const (
	insightSchemaTitle       = "SocialInsight"
	insightSchemaDescription = "Structured intelligence summary of a social media capture"
)

var insightFields = []string{"platform", "summary", "explanation", "sentiment", "keyTakeaways"}

// insightReply is the structured reply of the model. Every field is optional.
type insightReply struct {
	Platform     string
	Summary      string
	Explanation  string
	Sentiment    string
	KeyTakeaways []string
}

// parseInsightReply reads a structured reply leniently. Unparseable or empty
// text yields an empty reply, and each field is read independently so one
// mistyped field does not discard the others.
func parseInsightReply(text string) insightReply {
	var raw map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return insightReply{}
	}

	reply := insightReply{
		Platform:    stringField(raw, "platform"),
		Summary:     stringField(raw, "summary"),
		Explanation: stringField(raw, "explanation"),
		Sentiment:   stringField(raw, "sentiment"),
	}

	if items, ok := raw["keyTakeaways"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				reply.KeyTakeaways = append(reply.KeyTakeaways, strings.TrimSpace(s))
			}
		}
	}

	return reply
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

// stripCodeFence removes a markdown code fence some models wrap JSON in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// content applies the field fallbacks. summaryFallback differs between
// reference and media captures.
func (r insightReply) content(summaryFallback string) model.InsightContent {
	c := model.InsightContent{
		Platform:     types.ClassifyPlatform(r.Platform),
		Summary:      r.Summary,
		Explanation:  r.Explanation,
		Sentiment:    types.NormalizeSentiment(r.Sentiment),
		KeyTakeaways: r.KeyTakeaways,
	}
	if c.Summary == "" {
		c.Summary = summaryFallback
	}
	if c.Explanation == "" {
		c.Explanation = FallbackExplanation
	}
	if c.KeyTakeaways == nil {
		c.KeyTakeaways = []string{}
	}
	return c
}

// responseText joins the text parts of a gollem response
func responseText(resp *gollem.Response) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(resp.Texts, ""))
}

func insightParameter() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       insightSchemaTitle,
		Description: insightSchemaDescription,
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"platform": {
				Type:        gollem.TypeString,
				Description: "Social network the capture comes from",
				Required:    true,
			},
			"summary": {
				Type:        gollem.TypeString,
				Description: "One sentence headline",
				Required:    true,
			},
			"explanation": {
				Type:        gollem.TypeString,
				Description: "Longer context of the capture",
				Required:    true,
			},
			"sentiment": {
				Type:        gollem.TypeString,
				Description: "positive, neutral, or negative",
				Required:    true,
			},
			"keyTakeaways": {
				Type:        gollem.TypeArray,
				Description: "Short key takeaways",
				Required:    true,
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			},
		},
	}
}

func insightSchema() *genai.Schema {
	return &genai.Schema{
		Title:       insightSchemaTitle,
		Description: insightSchemaDescription,
		Type:        genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"platform":    {Type: genai.TypeString},
			"summary":     {Type: genai.TypeString},
			"explanation": {Type: genai.TypeString},
			"sentiment":   {Type: genai.TypeString},
			"keyTakeaways": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: insightFields,
	}
}
