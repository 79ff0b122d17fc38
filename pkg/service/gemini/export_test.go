package gemini

import "google.golang.org/genai"

// Export for testing
var (
	InlineData          = inlineData
	GroundingReferences = groundingReferences
)

func ResponseFromParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts, Role: genai.RoleModel}},
		},
	}
}
