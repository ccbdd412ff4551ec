package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

var (
	ErrAllProvidersUnavailable = errors.New("All AI providers are unavailable. Please try again later.")
	ErrEmptyResponse           = errors.New("empty response from provider")
)

// FailureKind classifies why a provider attempt failed.
type FailureKind string

const (
	KindQuota           FailureKind = "quota"
	KindNetwork         FailureKind = "network"
	KindInvalidResponse FailureKind = "invalid_response"
	KindUnavailable     FailureKind = "unavailable"
	KindUnknown         FailureKind = "unknown"
)

// Attempt is the outcome of one call to one provider model.
// Exactly one of Text or Err is meaningful.
type Attempt struct {
	Provider string
	Model    string
	Text     string
	Kind     FailureKind
	Err      error
	Latency  time.Duration
}

func (a Attempt) OK() bool {
	return a.Err == nil
}

func classify(err error) FailureKind {
	if errors.Is(err, ErrEmptyResponse) {
		return KindInvalidResponse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "429", "quota", "resource_exhausted", "rate limit", "rate_limit"):
		return KindQuota
	case containsAny(msg, "503", "502", "unavailable", "overloaded", "not found", "404"):
		return KindUnavailable
	case containsAny(msg, "timeout", "connection refused", "connection reset", "no such host", "eof"):
		return KindNetwork
	case containsAny(msg, "invalid character", "unexpected end of json", "cannot unmarshal"):
		return KindInvalidResponse
	}
	return KindUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
