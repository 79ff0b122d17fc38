package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
)

// ChatUseCase answers follow-up questions about an insight. Each insight owns an
// append-only transcript that is rendered into every request, so the model
// needs no memory of its own.
type ChatUseCase struct {
	llmClient gollem.LLMClient
	guard     *InFlight

	mu          sync.RWMutex
	transcripts map[model.InsightID]model.Transcript
	// epoch advances on every reset; turns of a request started in an older
	// epoch are not committed
	epoch map[model.InsightID]uint64
}

var _ InsightObserver = &ChatUseCase{}

func NewChatUseCase(llmClient gollem.LLMClient) *ChatUseCase {
	return &ChatUseCase{
		llmClient:   llmClient,
		guard:       NewInFlight(),
		transcripts: make(map[model.InsightID]model.Transcript),
		epoch:       make(map[model.InsightID]uint64),
	}
}

// Ask sends question in the context of insight and its transcript. The user
// and ai turns are committed together only after a reply arrives; on transport
// failure ErrChat is returned and the transcript is unchanged.
func (uc *ChatUseCase) Ask(ctx context.Context, insight *model.Insight, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", goerr.Wrap(ErrInvalidInput, "question is empty", goerr.V(InsightIDKey, insight.ID))
	}
	if uc.llmClient == nil {
		return "", goerr.Wrap(ErrNotConfigured, "LLM client is not configured")
	}

	release, err := uc.guard.Acquire("chat:" + insight.ID.String())
	if err != nil {
		return "", err
	}
	defer release()

	uc.mu.RLock()
	transcript := uc.transcripts[insight.ID].Append()
	started := uc.epoch[insight.ID]
	uc.mu.RUnlock()

	systemPrompt, err := render(chatSystemPrompt, chatSystemPromptData{
		Summary:      insight.Summary,
		Explanation:  insight.Explanation,
		Platform:     insight.Platform.String(),
		Sentiment:    insight.Sentiment.String(),
		KeyTakeaways: insight.KeyTakeaways,
		Transcript:   transcript,
	})
	if err != nil {
		return "", err
	}

	session, err := uc.llmClient.NewSession(ctx, gollem.WithSessionSystemPrompt(systemPrompt))
	if err != nil {
		return "", goerr.Wrap(ErrChat, "failed to create LLM session",
			goerr.V(InsightIDKey, insight.ID), goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(question))
	if err != nil {
		return "", goerr.Wrap(ErrChat, "failed to get chat reply",
			goerr.V(InsightIDKey, insight.ID), goerr.V("cause", err.Error()))
	}

	answer := responseText(resp)
	if answer == "" {
		answer = FallbackChatAnswer
	}

	uc.mu.Lock()
	if uc.epoch[insight.ID] == started {
		uc.transcripts[insight.ID] = uc.transcripts[insight.ID].Append(
			model.ChatTurn{Role: types.ChatRoleUser, Text: question},
			model.ChatTurn{Role: types.ChatRoleAI, Text: answer},
		)
	}
	uc.mu.Unlock()

	return answer, nil
}

// Transcript returns a snapshot of the conversation about an insight
func (uc *ChatUseCase) Transcript(id model.InsightID) model.Transcript {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.transcripts[id].Append()
}

// Reset drops the conversation about an insight. A reply still in flight is
// returned to its caller but not recorded.
func (uc *ChatUseCase) Reset(id model.InsightID) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.transcripts, id)
	uc.epoch[id]++
}

func (uc *ChatUseCase) InsightCreated(ctx context.Context, insight *model.Insight) {}

func (uc *ChatUseCase) InsightDeleted(ctx context.Context, id model.InsightID) {
	uc.Reset(id)
}
