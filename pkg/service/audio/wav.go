package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// EncodeWAV writes b as a 16-bit PCM RIFF/WAVE stream
func EncodeWAV(w io.Writer, b *Buffer) error {
	if b == nil || len(b.Channels) == 0 {
		return goerr.New("audio buffer is empty")
	}

	channels := len(b.Channels)
	frames := b.Frames()
	for ch, samples := range b.Channels {
		if len(samples) != frames {
			return goerr.New("channel length mismatch",
				goerr.V("channel", ch),
				goerr.V("expected", frames),
				goerr.V("actual", len(samples)))
		}
	}

	dataSize := frames * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.SampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	sample := make([]byte, bytesPerSample)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(sample, uint16(toInt16(b.Channels[ch][i])))
			buf.Write(sample)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return goerr.Wrap(err, "failed to write wav stream")
	}
	return nil
}

func toInt16(v float32) int16 {
	scaled := math.Round(float64(v) * sampleScale)
	switch {
	case scaled > math.MaxInt16:
		return math.MaxInt16
	case scaled < math.MinInt16:
		return math.MinInt16
	default:
		return int16(scaled)
	}
}
