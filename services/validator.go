package services

import (
	"strings"
	"unicode/utf8"
)

// Validation reasons returned verbatim to the caller.
const (
	ReasonTooShort  = "Question too short"
	ReasonOffensive = "Offensive content detected"
	ReasonValid     = "Valid question"
)

// QuestionValidator is a fast local pre-filter that rejects obviously
// invalid or disallowed questions before any network call is made.
type QuestionValidator struct {
	minLength int
	denylist  []string
}

func NewQuestionValidator(minLength int, denylist []string) *QuestionValidator {
	terms := make([]string, 0, len(denylist))
	for _, t := range denylist {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return &QuestionValidator{
		minLength: minLength,
		denylist:  terms,
	}
}

// Validate reports whether the question may proceed and why. Pure
// function, no side effects, no network calls.
func (v *QuestionValidator) Validate(question string) (bool, string) {
	// Length is counted in characters, not bytes, so multibyte input
	// is measured the same as ASCII.
	if utf8.RuneCountInString(question) < v.minLength {
		return false, ReasonTooShort
	}

	lower := strings.ToLower(question)
	for _, term := range v.denylist {
		if strings.Contains(lower, term) {
			return false, ReasonOffensive
		}
	}

	return true, ReasonValid
}
