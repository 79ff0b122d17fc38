package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/config"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"github.com/secmon-lab/gathsalt/pkg/service/notion"
	"github.com/secmon-lab/gathsalt/pkg/service/reference"
	"github.com/secmon-lab/gathsalt/pkg/service/slack"
)

type UseCases struct {
	repo      interfaces.Repository
	appConfig *config.AppConfig
	llmClient gollem.LLMClient
	gemini    gemini.Service
	reference reference.Service
	export    *ExportUseCase
	observers []InsightObserver

	Insight  *InsightUseCase
	DeepDive *DeepDiveUseCase
	Chat     *ChatUseCase
	Speech   *SpeechUseCase
	Export   *ExportUseCase
	Auth     AuthUseCaseInterface
}

type Option func(*UseCases)

func WithAppConfig(cfg *config.AppConfig) Option {
	return func(uc *UseCases) {
		if cfg != nil {
			uc.appConfig = cfg
		}
	}
}

// WithLLMClient sets the client used for reference capture and chat
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

// WithGemini sets the service used for media capture, deep dive and speech
func WithGemini(svc gemini.Service) Option {
	return func(uc *UseCases) {
		uc.gemini = svc
	}
}

// WithReference enables page metadata enrichment of captured references
func WithReference(svc reference.Service) Option {
	return func(uc *UseCases) {
		uc.reference = svc
	}
}

// WithSlack shares every new insight to channelID
func WithSlack(svc slack.Service, channelID string) Option {
	return func(uc *UseCases) {
		uc.export.slackService = svc
		uc.export.slackChannelID = channelID
	}
}

// WithNotion enables export of insights to the Notion database dbID
func WithNotion(svc notion.Service, dbID string) Option {
	return func(uc *UseCases) {
		uc.export.notionService = svc
		uc.export.notionDatabaseID = dbID
	}
}

// WithBaseURL sets the dashboard URL used in shared messages
func WithBaseURL(baseURL string) Option {
	return func(uc *UseCases) {
		uc.export.baseURL = baseURL
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithObserver registers an additional observer of insight store changes
func WithObserver(o InsightObserver) Option {
	return func(uc *UseCases) {
		uc.observers = append(uc.observers, o)
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		appConfig: config.DefaultAppConfig(),
		export:    NewExportUseCase(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	var refService reference.Service
	if uc.appConfig.Capture.Enrich {
		refService = uc.reference
	}

	uc.Insight = NewInsightUseCase(repo, uc.llmClient, uc.gemini, refService)
	uc.DeepDive = NewDeepDiveUseCase(uc.gemini)
	uc.Chat = NewChatUseCase(uc.llmClient)
	uc.Speech = NewSpeechUseCase(uc.gemini, uc.appConfig.Speech)
	uc.Export = uc.export

	if uc.Auth == nil {
		uc.Auth = NewNoAuthnUseCase(uc.appConfig.Auth.LoginDelay)
	}

	uc.Insight.Observe(uc.DeepDive)
	uc.Insight.Observe(uc.Chat)
	uc.Insight.Observe(uc.Export)
	for _, o := range uc.observers {
		uc.Insight.Observe(o)
	}

	return uc
}

// AppConfig returns the runtime settings in effect
func (uc *UseCases) AppConfig() *config.AppConfig {
	return uc.appConfig
}

// Repository returns the store the use cases operate on
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}
