package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/config"
	"github.com/secmon-lab/gathsalt/pkg/service/audio"
	"github.com/secmon-lab/gathsalt/pkg/service/gemini"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
)

// SpeechUseCase narrates text through the model's text-to-speech
type SpeechUseCase struct {
	gemini  gemini.Service
	voice   string
	framing string
	guard   *InFlight
}

func NewSpeechUseCase(geminiService gemini.Service, cfg config.Speech) *SpeechUseCase {
	uc := &SpeechUseCase{
		gemini:  geminiService,
		voice:   cfg.Voice,
		framing: cfg.Framing,
		guard:   NewInFlight(),
	}
	if uc.voice == "" {
		uc.voice = config.DefaultVoice
	}
	if uc.framing == "" {
		uc.framing = config.DefaultSpeechFrame
	}
	return uc
}

// Speak synthesizes text and hands the decoded audio to player. It returns once
// playback has started. slot identifies the caller's playback control; while a
// slot is speaking, another Speak on it fails with ErrInFlight. An empty slot is
// not guarded. An empty voice selects the configured default.
//
// A reply without audio returns ErrNoAudioReturned; callers treat it as a no-op.
func (uc *SpeechUseCase) Speak(ctx context.Context, slot, text, voice string, player audio.Player) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return goerr.Wrap(ErrInvalidInput, "text to speak is empty")
	}
	if uc.gemini == nil {
		return goerr.Wrap(ErrNotConfigured, "Gemini service is not configured")
	}
	if voice == "" {
		voice = uc.voice
	}

	if slot != "" {
		release, err := uc.guard.Acquire("speech:" + slot)
		if err != nil {
			return err
		}
		defer release()
	}

	pcm, err := uc.gemini.Speak(ctx, uc.framing+text, voice)
	if err != nil {
		return goerr.Wrap(ErrSpeech, "failed to synthesize speech",
			goerr.V("voice", voice), goerr.V("cause", err.Error()))
	}
	if len(pcm) == 0 {
		logging.From(ctx).Warn("speech reply carried no audio", "voice", voice, "slot", slot)
		return goerr.Wrap(ErrNoAudioReturned, "speech reply carried no audio", goerr.V("voice", voice))
	}

	buf, err := audio.Decode(pcm, audio.SpeechSampleRate, audio.SpeechChannels)
	if err != nil {
		return goerr.Wrap(err, "failed to decode speech audio", goerr.V("length", len(pcm)))
	}

	if err := player.Play(ctx, buf); err != nil {
		return goerr.Wrap(err, "failed to start playback")
	}
	return nil
}

// Voice returns the default voice
func (uc *SpeechUseCase) Voice() string {
	return uc.voice
}
