package listener

import "strings"

// questionStarters open interrogatives and requests. Each carries its
// trailing space so "isolation" does not count as "is".
var questionStarters = []string{
	"what ", "why ", "how ", "is ", "are ", "can ", "does ", "do ", "did ",
	"will ", "would ", "should ", "could ", "tell me ", "explain ",
	"when ", "where ", "which ",
}

// closingPhrases signal that the speaker is done
var closingPhrases = []string{"thank you", "that's it", "that's all"}

// shortQuestionWords is the word limit under which any text counts as a
// short question
const shortQuestionWords = 8

// ClassifyShortQuestion reports whether text should get the fast
// finalization path: at most eight words, an interrogative or request
// opener, or a trailing question mark.
func ClassifyShortQuestion(text string) bool {
	return isShortQuestion(text, shortQuestionWords)
}

func isShortQuestion(text string, maxWords int) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if len(strings.Fields(lower)) <= maxWords {
		return true
	}
	if strings.HasSuffix(lower, "?") {
		return true
	}
	for _, starter := range questionStarters {
		if strings.HasPrefix(lower, starter) {
			return true
		}
	}
	return false
}

// EndsSentence reports whether text ends in terminal punctuation or
// contains a closing phrase
func EndsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '?', '!', ':':
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range closingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
