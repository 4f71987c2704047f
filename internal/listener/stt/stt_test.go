package stt

import (
	"errors"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{"what is [BLANK_AUDIO] your name", "what is your name"},
		{"\n\tline one\nline two\n", "line one line two"},
	}

	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBestAlternative(t *testing.T) {
	tests := []struct {
		name   string
		alts   []Alternative
		want   string
		wantOK bool
	}{
		{
			name: "highest confidence",
			alts: []Alternative{
				{Text: "what is your name", Confidence: 0.62},
				{Text: "what is your aim", Confidence: 0.91},
			},
			want:   "what is your aim",
			wantOK: true,
		},
		{
			name: "longest without confidence",
			alts: []Alternative{
				{Text: "tell me"},
				{Text: "tell me about yourself"},
			},
			want:   "tell me about yourself",
			wantOK: true,
		},
		{
			name: "first wins ties",
			alts: []Alternative{
				{Text: "abc"},
				{Text: "xyz"},
			},
			want:   "abc",
			wantOK: true,
		},
		{
			name:   "only blanks",
			alts:   []Alternative{{Text: "  "}},
			wantOK: false,
		},
		{
			name:   "none",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestAlternative(tt.alts)
			if ok != tt.wantOK {
				t.Fatalf("BestAlternative() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Text != tt.want {
				t.Errorf("BestAlternative() = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	res, err := finalize(Result{Alternatives: []Alternative{{Text: "why Go", Confidence: 0.8}}})
	if err != nil {
		t.Fatalf("finalize() error = %v", err)
	}
	if res.Text != "why Go" || res.Confidence != 0.8 {
		t.Errorf("finalize() = %+v, want alternative text and confidence", res)
	}

	if _, err := finalize(Result{Text: " [BLANK_AUDIO] "}); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("finalize() error = %v, want ErrUnrecognized", err)
	}
}
