// Package quote defines the single entity the wall moderates.
package quote

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DefaultMaxNameLength caps the submitter name typed at the kiosk.
	DefaultMaxNameLength = 22
	// DefaultMaxTextLength caps the quote text typed at the kiosk.
	DefaultMaxTextLength = 30
)

// Quote is one submission. ID is empty for records written before stable
// identifiers were introduced.
type Quote struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Text string `json:"quote"`
}

// New builds a quote with a fresh random identifier.
func New(name, text string) Quote {
	return Quote{
		ID:   uuid.NewString(),
		Name: name,
		Text: text,
	}
}

// Same reports whether a and b are the same submission. Identifiers win when
// both sides carry one; otherwise name and text must match exactly.
func Same(a, b Quote) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name == b.Name && a.Text == b.Text
}

// Contains reports whether list holds a quote that is Same as q.
func Contains(list []Quote, q Quote) bool {
	return Index(list, q) >= 0
}

// Index returns the position of the first quote Same as q, or -1.
func Index(list []Quote, q Quote) int {
	for i, candidate := range list {
		if Same(candidate, q) {
			return i
		}
	}
	return -1
}

// Clone returns a copy of list that never aliases the original backing array.
func Clone(list []Quote) []Quote {
	out := make([]Quote, len(list))
	copy(out, list)
	return out
}

// Truncate shortens s to at most limit runes. A non-positive limit disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// Normalize trims surrounding whitespace from both fields.
func Normalize(name, text string) (string, string) {
	return strings.TrimSpace(name), strings.TrimSpace(text)
}
