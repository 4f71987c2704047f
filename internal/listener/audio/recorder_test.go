package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testFrame = 160 // 10ms at 16kHz

// scriptedReader replays a fixed list of frames and then fails with end
type scriptedReader struct {
	frames [][]float32
	pos    int
	end    error
	closed bool
}

func (r *scriptedReader) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.frames) {
		return nil, r.end
	}
	f := r.frames[r.pos]
	r.pos++
	return f, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func frames(n int, amplitude float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		f := make([]float32, testFrame)
		for j := range f {
			if j%2 == 0 {
				f[j] = amplitude
			} else {
				f[j] = -amplitude
			}
		}
		out[i] = f
	}
	return out
}

func script(parts ...[][]float32) [][]float32 {
	var out [][]float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type fixedDetector struct{ speech bool }

func (d fixedDetector) Process([]float32) (bool, error) { return d.speech, nil }

func testRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate:          16000,
		FramesPerBuffer:     testFrame,
		PauseThreshold:      100 * time.Millisecond,
		PhraseThreshold:     30 * time.Millisecond,
		NonSpeakingDuration: 50 * time.Millisecond,
	}
}

var testRequest = ClipRequest{StartTimeout: time.Second, EnergyThreshold: 300}

func TestRecorder_FrameDuration(t *testing.T) {
	r := NewRecorder(&scriptedReader{}, nil, testRecorderConfig(), nil)
	if got := r.FrameDuration(); got != 10*time.Millisecond {
		t.Errorf("FrameDuration() = %v, want 10ms", got)
	}
}

func TestRecorder_NextClip(t *testing.T) {
	reader := &scriptedReader{
		frames: script(frames(3, 0), frames(20, 0.5), frames(30, 0)),
		end:    ErrNotRunning,
	}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	clip, err := r.NextClip(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("NextClip() error = %v", err)
	}

	// 4 pre-roll frames, 19 speech frames, 5 of 11 trailing silence frames
	want := (4 + 19 + 5) * testFrame
	if len(clip.Samples) != want {
		t.Errorf("len(Samples) = %d, want %d", len(clip.Samples), want)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", clip.SampleRate)
	}
	if clip.EndedAt.Before(clip.StartedAt) {
		t.Errorf("EndedAt %v before StartedAt %v", clip.EndedAt, clip.StartedAt)
	}
}

func TestRecorder_StartTimeout(t *testing.T) {
	reader := &scriptedReader{frames: frames(100, 0), end: ErrNotRunning}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	_, err := r.NextClip(context.Background(), ClipRequest{StartTimeout: 50 * time.Millisecond, EnergyThreshold: 300})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("NextClip() error = %v, want ErrNoSpeech", err)
	}
	if reader.pos != 5 {
		t.Errorf("frames read = %d, want 5", reader.pos)
	}
}

func TestRecorder_DiscardsShortBurst(t *testing.T) {
	reader := &scriptedReader{
		frames: script(frames(1, 0.5), frames(11, 0), frames(20, 0.5), frames(30, 0)),
		end:    ErrNotRunning,
	}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	clip, err := r.NextClip(context.Background(), ClipRequest{EnergyThreshold: 300})
	if err != nil {
		t.Fatalf("NextClip() error = %v", err)
	}

	want := (1 + 19 + 5) * testFrame
	if len(clip.Samples) != want {
		t.Errorf("len(Samples) = %d, want %d", len(clip.Samples), want)
	}
}

func TestRecorder_DetectorVeto(t *testing.T) {
	reader := &scriptedReader{frames: frames(100, 0.5), end: ErrNotRunning}
	r := NewRecorder(reader, fixedDetector{speech: false}, testRecorderConfig(), nil)

	_, err := r.NextClip(context.Background(), ClipRequest{StartTimeout: 50 * time.Millisecond, EnergyThreshold: 300})
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("NextClip() error = %v, want ErrNoSpeech", err)
	}
}

func TestRecorder_InterruptedPhrase(t *testing.T) {
	tests := []struct {
		name      string
		frames    [][]float32
		wantLen   int
		wantError bool
	}{
		{
			name:    "long enough",
			frames:  script(frames(1, 0), frames(10, 0.5)),
			wantLen: (2 + 9) * testFrame,
		},
		{
			name:      "too short",
			frames:    frames(1, 0.5),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &scriptedReader{frames: tt.frames, end: context.Canceled}
			r := NewRecorder(reader, nil, testRecorderConfig(), nil)

			clip, err := r.NextClip(context.Background(), ClipRequest{EnergyThreshold: 300})
			if tt.wantError {
				if !errors.Is(err, context.Canceled) {
					t.Errorf("NextClip() error = %v, want context.Canceled", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextClip() error = %v", err)
			}
			if len(clip.Samples) != tt.wantLen {
				t.Errorf("len(Samples) = %d, want %d", len(clip.Samples), tt.wantLen)
			}
		})
	}
}

func TestRecorder_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRecorder(&scriptedReader{frames: frames(10, 0)}, nil, testRecorderConfig(), nil)
	if _, err := r.NextClip(ctx, testRequest); !errors.Is(err, context.Canceled) {
		t.Errorf("NextClip() error = %v, want context.Canceled", err)
	}
}

func TestRecorder_SampleAmbient(t *testing.T) {
	reader := &scriptedReader{frames: frames(10, 0.01), end: ErrNotRunning}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	sample, err := r.SampleAmbient(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("SampleAmbient() error = %v", err)
	}
	if len(sample.Energies) != 5 {
		t.Errorf("len(Energies) = %d, want 5", len(sample.Energies))
	}
	if sample.FrameDuration != 10*time.Millisecond {
		t.Errorf("FrameDuration = %v, want 10ms", sample.FrameDuration)
	}

	if _, err := r.SampleAmbient(context.Background(), 5*time.Millisecond); err == nil {
		t.Error("SampleAmbient() expected error for window below one frame")
	}
}

func TestRecorder_SampleAmbientReadError(t *testing.T) {
	reader := &scriptedReader{end: ErrNotRunning}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	if _, err := r.SampleAmbient(context.Background(), 50*time.Millisecond); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SampleAmbient() error = %v, want ErrNotRunning", err)
	}
}

func TestRecorder_Close(t *testing.T) {
	reader := &scriptedReader{}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !reader.closed {
		t.Error("Close() should close the frame reader")
	}
}

func TestRecorder_MaxDurationCutsSteadyNoise(t *testing.T) {
	// RMS about 150, above a threshold nudged down to 100
	noise := frames(1000, 150.0/32768)

	tests := []struct {
		name          string
		maxDuration   time.Duration
		wantLen       int
		wantTruncated bool
		wantErr       error
	}{
		{name: "cut at limit", maxDuration: 200 * time.Millisecond, wantLen: (1 + 20) * testFrame, wantTruncated: true},
		{name: "no limit runs until the source ends", wantErr: ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &scriptedReader{frames: noise, end: ErrNotRunning}
			r := NewRecorder(reader, nil, testRecorderConfig(), nil)

			clip, err := r.NextClip(context.Background(), ClipRequest{
				StartTimeout:    time.Second,
				EnergyThreshold: 100,
				MaxDuration:     tt.maxDuration,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NextClip() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextClip() error = %v", err)
			}
			if clip.Truncated != tt.wantTruncated {
				t.Errorf("Truncated = %v, want %v", clip.Truncated, tt.wantTruncated)
			}
			if len(clip.Samples) != tt.wantLen {
				t.Errorf("len(Samples) = %d, want %d", len(clip.Samples), tt.wantLen)
			}
			if reader.pos != 21 {
				t.Errorf("frames read = %d, want 21", reader.pos)
			}
		})
	}
}

func TestRecorder_PauseIsNotTruncation(t *testing.T) {
	reader := &scriptedReader{
		frames: script(frames(20, 0.5), frames(30, 0)),
		end:    ErrNotRunning,
	}
	r := NewRecorder(reader, nil, testRecorderConfig(), nil)

	req := testRequest
	req.MaxDuration = time.Second
	clip, err := r.NextClip(context.Background(), req)
	if err != nil {
		t.Fatalf("NextClip() error = %v", err)
	}
	if clip.Truncated {
		t.Error("Truncated = true for a phrase that ended in a pause")
	}
}
