package audio

import (
	"encoding/binary"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// SpeechSampleRate is the sample rate of synthesized speech returned by the model
	SpeechSampleRate = 24000
	// SpeechChannels is the channel count of synthesized speech returned by the model
	SpeechChannels = 1

	bytesPerSample = 2
	sampleScale    = 32768.0
)

// ErrMalformedAudio is returned when the byte length does not match 16-bit
// interleaved framing for the declared channel count
var ErrMalformedAudio = goerr.New("malformed audio")

// Buffer is a decoded, playable audio buffer with one sample slice per channel.
// Samples are normalized to [-1.0, 1.0).
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Decode converts signed 16-bit little-endian PCM, interleaved frame-major across
// channels, into a normalized Buffer. The input is never repaired: a length that
// does not divide into whole frames fails with ErrMalformedAudio.
func Decode(data []byte, sampleRate, channels int) (*Buffer, error) {
	if channels < 1 {
		return nil, goerr.Wrap(ErrMalformedAudio, "channel count must be positive",
			goerr.V("channels", channels))
	}
	if sampleRate < 1 {
		return nil, goerr.Wrap(ErrMalformedAudio, "sample rate must be positive",
			goerr.V("sample_rate", sampleRate))
	}

	frameSize := bytesPerSample * channels
	if len(data)%frameSize != 0 {
		return nil, goerr.Wrap(ErrMalformedAudio, "byte length is not a whole number of frames",
			goerr.V("length", len(data)),
			goerr.V("channels", channels))
	}

	frames := len(data) / frameSize
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			offset := (i*channels + ch) * bytesPerSample
			sample := int16(binary.LittleEndian.Uint16(data[offset:]))
			buf.Channels[ch][i] = float32(sample) / sampleScale
		}
	}

	return buf, nil
}
