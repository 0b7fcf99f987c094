package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatalAPI marks provider errors that will not go away on retry
	// (credentials, quota, billing). Callers still degrade, but log them louder.
	ErrFatalAPI = errors.New("fatal LLM API error")

	// ErrNoChoices is returned when the provider answered without any choice.
	ErrNoChoices = errors.New("no response choices")

	// ErrEmptyCompletion is returned when the completion text is blank.
	ErrEmptyCompletion = errors.New("empty completion")
)

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
