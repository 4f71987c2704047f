package listener

import (
	"strings"
	"time"
	"unicode"
)

// maxOverlap bounds the seam search when merging segments
const maxOverlap = 20

// Segment is one recognition result, folded into the Utterance and dropped
type Segment struct {
	Text       string
	Confidence float64

	// CapturedAt is when capture of the clip completed
	CapturedAt time.Time
}

// Utterance is the running transcript of the question being asked.
// Zero times mean "not set". Text is empty exactly when StartedAt is zero.
type Utterance struct {
	Text                 string
	StartedAt            time.Time
	LastSpeechAt         time.Time
	PendingFinalizeSince time.Time
}

// Accept folds a segment into the utterance. Empty segments are ignored
// and reported with false.
func (u *Utterance) Accept(seg Segment) bool {
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		return false
	}

	u.Text = MergeTranscript(u.Text, text)
	if u.StartedAt.IsZero() {
		u.StartedAt = seg.CapturedAt
	}
	if seg.CapturedAt.After(u.LastSpeechAt) {
		u.LastSpeechAt = seg.CapturedAt
	}
	u.PendingFinalizeSince = time.Time{}
	return true
}

// Empty reports whether nothing has been said yet
func (u *Utterance) Empty() bool {
	return u.Text == ""
}

// Pending reports whether a confirm window is open
func (u *Utterance) Pending() bool {
	return !u.PendingFinalizeSince.IsZero()
}

// WordCount returns the number of whitespace-separated words
func (u *Utterance) WordCount() int {
	return len(strings.Fields(u.Text))
}

// Reset clears the utterance
func (u *Utterance) Reset() {
	*u = Utterance{}
}

// MergeTranscript appends next to existing, removing the seam overlap that
// consecutive recognizer segments tend to repeat. The overlap search looks
// at most maxOverlap characters back and only collapses whole words, so a
// shared letter at the seam ("about" + "the") is not an overlap.
func MergeTranscript(existing, next string) string {
	existing = strings.TrimSpace(existing)
	next = strings.TrimSpace(next)

	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	if strings.Contains(existing, next) {
		return existing
	}
	if strings.Contains(next, existing) {
		return next
	}

	nextRunes := []rune(next)
	existingRunes := []rune(existing)
	k := maxOverlap
	if len(existingRunes) < k {
		k = len(existingRunes)
	}
	if len(nextRunes) < k {
		k = len(nextRunes)
	}
	for ; k > 0; k-- {
		prefix := string(nextRunes[:k])
		if !strings.HasSuffix(existing, prefix) {
			continue
		}
		// The overlap must end at a word boundary in next and start at one
		// in existing
		if k < len(nextRunes) && !unicode.IsSpace(nextRunes[k]) {
			continue
		}
		if start := len(existingRunes) - k; start > 0 && !unicode.IsSpace(existingRunes[start-1]) {
			continue
		}
		return strings.TrimSpace(existing + string(nextRunes[k:]))
	}

	return existing + " " + next
}
