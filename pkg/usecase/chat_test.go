package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
)

func TestChat(t *testing.T) {
	ctx := context.Background()
	var questions []string
	replies := []string{"It started on a forum.", "Mostly younger users."}
	var mu sync.Mutex
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					mu.Lock()
					defer mu.Unlock()
					for _, in := range input {
						if text, ok := in.(gollem.Text); ok {
							questions = append(questions, string(text))
						}
					}
					reply := replies[0]
					replies = replies[1:]
					return &gollem.Response{Texts: []string{reply}}, nil
				},
			}, nil
		},
	}
	uc := usecase.NewChatUseCase(client)
	insight := newTestInsight("ref")

	answer, err := uc.Ask(ctx, insight, "Where did this start?")
	gt.NoError(t, err).Required()
	gt.Value(t, answer).Equal("It started on a forum.")

	answer, err = uc.Ask(ctx, insight, "  Who shares it?  ")
	gt.NoError(t, err).Required()
	gt.Value(t, answer).Equal("Mostly younger users.")

	gt.Array(t, questions).Equal([]string{"Where did this start?", "Who shares it?"})
	gt.Array(t, uc.Transcript(insight.ID)).Equal(model.Transcript{
		{Role: types.ChatRoleUser, Text: "Where did this start?"},
		{Role: types.ChatRoleAI, Text: "It started on a forum."},
		{Role: types.ChatRoleUser, Text: "Who shares it?"},
		{Role: types.ChatRoleAI, Text: "Mostly younger users."},
	})

	// other insights have their own transcript
	gt.Array(t, uc.Transcript(newTestInsight("other").ID)).Length(0)
}

func TestChat_TransportFailure(t *testing.T) {
	ctx := context.Background()
	fail := false
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if fail {
						return nil, errors.New("deadline exceeded")
					}
					return &gollem.Response{Texts: []string{"answer"}}, nil
				},
			}, nil
		},
	}
	uc := usecase.NewChatUseCase(client)
	insight := newTestInsight("ref")

	_, err := uc.Ask(ctx, insight, "first")
	gt.NoError(t, err).Required()

	fail = true
	_, err = uc.Ask(ctx, insight, "second")
	gt.Error(t, err).Is(usecase.ErrChat)

	transcript := uc.Transcript(insight.ID)
	gt.Array(t, transcript).Length(2).Required()
	gt.Value(t, transcript[0].Text).Equal("first")
}

func TestChat_EmptyReply(t *testing.T) {
	uc := usecase.NewChatUseCase(newReplyClient("   ", nil))
	insight := newTestInsight("ref")

	answer, err := uc.Ask(context.Background(), insight, "anything?")
	gt.NoError(t, err).Required()
	gt.Value(t, answer).Equal(usecase.FallbackChatAnswer)

	transcript := uc.Transcript(insight.ID)
	gt.Array(t, transcript).Length(2).Required()
	gt.Value(t, transcript[1].Text).Equal(usecase.FallbackChatAnswer)
}

func TestChat_InvalidInput(t *testing.T) {
	uc := usecase.NewChatUseCase(newReplyClient("answer", nil))
	_, err := uc.Ask(context.Background(), newTestInsight("ref"), " ")
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

// blockingChatClient holds every reply to the question "first" until proceed
// is closed and answers anything else immediately
func blockingChatClient(started, proceed chan struct{}) *mockLLMClient {
	var once sync.Once
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if len(input) > 0 && input[0] == gollem.Text("first") {
						once.Do(func() { close(started) })
						<-proceed
					}
					return &gollem.Response{Texts: []string{"answer"}}, nil
				},
			}, nil
		},
	}
}

func TestChat_InFlight(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	uc := usecase.NewChatUseCase(blockingChatClient(started, proceed))
	insight := newTestInsight("ref")

	errCh := make(chan error, 1)
	go func() {
		_, err := uc.Ask(context.Background(), insight, "first")
		errCh <- err
	}()
	<-started

	_, err := uc.Ask(context.Background(), insight, "second")
	gt.Error(t, err).Is(usecase.ErrInFlight)

	// a different insight is independent
	other := newTestInsight("other")
	_, err = uc.Ask(context.Background(), other, "parallel")
	gt.NoError(t, err)
	gt.Array(t, uc.Transcript(other.ID)).Length(2)

	close(proceed)
	gt.NoError(t, <-errCh)
	gt.Array(t, uc.Transcript(insight.ID)).Length(2)
}

func TestChat_DeleteDuringReply(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	proceed := make(chan struct{})
	uc := usecase.NewChatUseCase(blockingChatClient(started, proceed))
	insight := newTestInsight("ref")

	type result struct {
		answer string
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		answer, err := uc.Ask(ctx, insight, "first")
		resCh <- result{answer, err}
	}()
	<-started

	uc.InsightDeleted(ctx, insight.ID)
	close(proceed)

	res := <-resCh
	gt.NoError(t, res.err)
	gt.Value(t, res.answer).Equal("answer")
	gt.Array(t, uc.Transcript(insight.ID)).Length(0)

	// later questions are recorded again
	_, err := uc.Ask(ctx, insight, "after")
	gt.NoError(t, err).Required()
	gt.Array(t, uc.Transcript(insight.ID)).Length(2)
}

func TestChat_ResetOnDelete(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewChatUseCase(newReplyClient("answer", nil))
	insight := newTestInsight("ref")

	_, err := uc.Ask(ctx, insight, "question")
	gt.NoError(t, err).Required()
	gt.Array(t, uc.Transcript(insight.ID)).Length(2)

	uc.InsightDeleted(ctx, insight.ID)
	gt.Array(t, uc.Transcript(insight.ID)).Length(0)
}

func TestRenderChatSystemPrompt(t *testing.T) {
	insight := newTestInsight("ref")
	transcript := model.Transcript{
		{Role: types.ChatRoleUser, Text: "Where did this start?"},
		{Role: types.ChatRoleAI, Text: "On a forum."},
	}

	prompt, err := usecase.RenderChatSystemPrompt(insight, transcript)
	gt.NoError(t, err).Required()

	gt.S(t, prompt).Contains("Consultant for: Rocket launch thread.")
	gt.S(t, prompt).Contains("A viral launch announcement")
	gt.S(t, prompt).Contains("high reach")
	gt.S(t, prompt).Contains("Analyst: Where did this start?")
	gt.S(t, prompt).Contains("Consultant: On a forum.")
}
