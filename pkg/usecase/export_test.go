package usecase

import (
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
)

// ParseInsightReply is exported for testing
func ParseInsightReply(text string, summaryFallback string) model.InsightContent {
	return parseInsightReply(text).content(summaryFallback)
}

// BuildDeepDive is exported for testing
func BuildDeepDive(resp *gemini.ResearchResult) *model.DeepDive {
	return buildDeepDive(resp)
}

// BuildInsightMessageBlocks is exported for testing
var BuildInsightMessageBlocks = buildInsightMessageBlocks

// RenderChatSystemPrompt is exported for testing
func RenderChatSystemPrompt(insight *model.Insight, transcript model.Transcript) (string, error) {
	return render(chatSystemPrompt, chatSystemPromptData{
		Summary:      insight.Summary,
		Explanation:  insight.Explanation,
		Platform:     insight.Platform.String(),
		Sentiment:    insight.Sentiment.String(),
		KeyTakeaways: insight.KeyTakeaways,
		Transcript:   transcript,
	})
}

// SniffImage is exported for testing
var SniffImage = sniffImage
