package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// EncodeWAV renders the clip as a 16-bit mono WAV file
func EncodeWAV(clip Clip) ([]byte, error) {
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", clip.SampleRate)
	}

	pcm := ToInt16(clip.Samples)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}

	ws := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(ws, clip.SampleRate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Data: data,
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  clip.SampleRate,
		},
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV: %w", err)
	}

	out, err := io.ReadAll(ws.Reader())
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV buffer: %w", err)
	}
	return out, nil
}
