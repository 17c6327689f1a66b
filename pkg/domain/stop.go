package domain

import (
	"strings"
	"unicode"
)

var stopPhrases = map[string]bool{
	"stop":        true,
	"stop it":     true,
	"cancel":      true,
	"cancel that": true,
	"cancel it":   true,
	"quit":        true,
	"exit":        true,
	"never mind":  true,
	"nevermind":   true,
	"forget it":   true,
	"abort":       true,
}

// filler words ignored around a stop phrase ("stop please", "ok jarvis, cancel that").
var stopFillers = map[string]bool{
	"please": true,
	"jarvis": true,
	"ok":     true,
	"okay":   true,
	"just":   true,
}

// IsStopPhrase reports whether text, as a whole, asks the assistant to stop.
// "cancel" alone stops; "cancel the meeting" does not.
func IsStopPhrase(text string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if !stopFillers[w] {
			words = append(words, w)
		}
	}
	return stopPhrases[strings.Join(words, " ")]
}
