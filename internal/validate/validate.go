// Package validate checks event names and command tokens typed by users.
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinEventNameLen = 2
	MaxEventNameLen = 20
)

// Reason tells why an input was rejected.
type Reason int

const (
	TooShort Reason = iota + 1
	TooLong
	InvalidChars
	UnknownCommand
)

// Error describes a rejected input.
type Error struct {
	Reason Reason
	Input  string
	// Chars holds the distinct disallowed characters in order of first appearance.
	Chars []rune
}

func (e *Error) Error() string {
	switch e.Reason {
	case TooShort:
		return fmt.Sprintf("event name %q shorter than %d characters", e.Input, MinEventNameLen)
	case TooLong:
		return fmt.Sprintf("event name %q longer than %d characters", e.Input, MaxEventNameLen)
	case InvalidChars:
		return fmt.Sprintf("event name %q has invalid characters %q", e.Input, string(e.Chars))
	case UnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Input)
	}
	return fmt.Sprintf("invalid input %q", e.Input)
}

// EventName returns nil when name is a valid event name. Length is counted in
// characters, not bytes.
func EventName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinEventNameLen {
		return &Error{Reason: TooShort, Input: name}
	}
	if n > MaxEventNameLen {
		return &Error{Reason: TooLong, Input: name}
	}

	var bad []rune
	seen := make(map[rune]struct{})
	for _, r := range name {
		if allowed(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		bad = append(bad, r)
	}
	if len(bad) > 0 {
		return &Error{Reason: InvalidChars, Input: name, Chars: bad}
	}
	return nil
}

// allowed matches CJK unified ideographs (U+4E00..U+9FFF), ASCII letters and
// digits, space, underscore and hyphen.
func allowed(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF:
		return true
	case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case r == ' ', r == '_', r == '-':
		return true
	}
	return false
}

// Command returns nil when token is one of known. Matching is exact.
func Command(token string, known []string) error {
	for _, k := range known {
		if token == k {
			return nil
		}
	}
	return &Error{Reason: UnknownCommand, Input: token}
}

// IsCommand reports whether text is formatted as a command.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/") && len(text) > 1
}
