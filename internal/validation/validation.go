package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinQuestions = 1
	MaxQuestions = 50

	maxTopicLength    = 200
	maxDeckNameLength = 200
	maxCardTextLength = 4000
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects several field failures
type Errors []*ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Join returns nil when every err is nil, the single failure when there is
// one, and Errors otherwise
func Join(errs ...error) error {
	var out Errors
	for _, err := range errs {
		var ve *ValidationError
		if errors.As(err, &ve) {
			out = append(out, ve)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

// IsValidationError reports whether err is, or wraps, a validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	var ves Errors
	return errors.As(err, &ve) || errors.As(err, &ves)
}

func required(field, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)}
	}
	return nil
}

// ValidateTopic checks a generation or card topic
func ValidateTopic(topic string) error {
	return required("topic", topic, maxTopicLength)
}

// ValidateNumQuestions checks the requested number of generated cards
func ValidateNumQuestions(n int) error {
	if n < MinQuestions || n > MaxQuestions {
		return &ValidationError{
			Field:   "num_questions",
			Message: fmt.Sprintf("num_questions must be between %d and %d", MinQuestions, MaxQuestions),
		}
	}
	return nil
}

// ValidateDeckName checks a deck name
func ValidateDeckName(name string) error {
	return required("name", name, maxDeckNameLength)
}

// ValidateCard checks both sides of a card
func ValidateCard(question, answer string) error {
	return Join(
		required("question", question, maxCardTextLength),
		required("answer", answer, maxCardTextLength),
	)
}

// ValidateSessionCounts checks counters reported for a finished session
func ValidateSessionCounts(studied, correct int) error {
	if studied < 0 {
		return &ValidationError{Field: "cards_studied", Message: "cards_studied cannot be negative"}
	}
	if correct < 0 || correct > studied {
		return &ValidationError{Field: "cards_correct", Message: "cards_correct must be between 0 and cards_studied"}
	}
	return nil
}
