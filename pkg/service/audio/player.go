package audio

import (
	"context"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Player hands a decoded buffer to an output sink. Play returns once playback
// has started; it does not wait for the audio to finish.
type Player interface {
	Play(ctx context.Context, buf *Buffer) error
}

// WAVPlayer "plays" a buffer by streaming it as WAV to a writer, such as an HTTP
// response or a file.
type WAVPlayer struct {
	mu     sync.Mutex
	w      io.Writer
	played bool
}

var _ Player = &WAVPlayer{}

func NewWAVPlayer(w io.Writer) *WAVPlayer {
	return &WAVPlayer{w: w}
}

func (p *WAVPlayer) Play(ctx context.Context, buf *Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.played {
		return goerr.New("wav sink already consumed")
	}
	if err := EncodeWAV(p.w, buf); err != nil {
		return err
	}
	p.played = true
	return nil
}

// Played reports whether a buffer has been written to the sink
func (p *WAVPlayer) Played() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}
