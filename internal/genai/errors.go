package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrorAction is what the caller should do about a provider error.
type ErrorAction int

const (
	// ActionRetry: transient, try the same provider again.
	ActionRetry ErrorAction = iota
	// ActionFallback: this provider is out of quota, switch providers.
	ActionFallback
	// ActionFail: permanent, retrying cannot help.
	ActionFail
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError carries the provider and HTTP status alongside the cause so
// classification can use the status code instead of string matching.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and status context to a provider error.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	return &LLMError{Err: err, StatusCode: statusCode, Provider: provider}
}

// messageActions map substrings of provider error text to an action when no
// status code is available. Checked in order; quota must come before the
// generic rate-limit markers since quota messages often mention both.
var messageActions = []struct {
	action  ErrorAction
	markers []string
}{
	{ActionFallback, []string{"quota", "daily limit", "monthly limit", "billing"}},
	{ActionRetry, []string{"rate limit", "too many requests", "resource_exhausted", "429"}},
	{ActionRetry, []string{
		"unavailable", "503", "502", "500", "504",
		"internal server error", "bad gateway", "gateway timeout",
		"overloaded", "capacity",
	}},
	{ActionRetry, []string{"timeout", "deadline", "connection"}},
	{ActionFail, []string{
		"400", "invalid", "bad request", "malformed",
		"401", "unauthorized", "unauthenticated",
		"403", "forbidden", "permission denied",
		"404", "not found",
	}},
}

// ClassifyError decides between retrying, switching provider, and giving up.
// Transient conditions (429, 5xx, timeouts) retry; quota exhaustion falls
// back to the other provider; client errors fail outright.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}
	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	text := strings.ToLower(err.Error())
	for _, entry := range messageActions {
		if containsAny(text, entry.markers...) {
			return entry.action
		}
	}

	// Unknown errors get one more chance.
	return ActionRetry
}

func classifyStatusCode(status int) ErrorAction {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return ActionRetry
	case status >= 500:
		return ActionRetry
	case status >= 400:
		return ActionFail
	default:
		return ActionRetry
	}
}

// IsRetryable reports whether the error is transient.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// IsPermanent reports whether retrying cannot help.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
