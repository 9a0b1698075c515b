package retry

import (
	"strings"

	"github.com/agentstation/gamemeta/pkg/errors"
)

// Class is the failure class of a provider call.
type Class int

const (
	// ClassNone means the call succeeded.
	ClassNone Class = iota
	// ClassRateLimited means the provider throttled the call.
	ClassRateLimited
	// ClassTransport means the call failed below HTTP.
	ClassTransport
	// ClassProtocol means the provider answered with an error status or an unreadable body.
	ClassProtocol
	// ClassUnknown is any other failure.
	ClassUnknown
)

// String returns the metric label of the class.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassRateLimited:
		return "rate_limited"
	case ClassTransport:
		return "transport"
	case ClassProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// rateLimitKeywords are matched against the lowered provider message when
// the error carries no structured throttling signal.
var rateLimitKeywords = []string{
	"rate limit",
	"ratelimit",
	"429",
	"420",
	"too many requests",
	"quota",
}

// Classify returns the failure class of err. A structured 429 wins, then a
// typed transport failure, then the keyword heuristic over the provider's own
// message, then the typed protocol errors.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.IsRateLimited(err) {
		return ClassRateLimited
	}
	if errors.IsTransport(err) {
		return ClassTransport
	}
	message := strings.ToLower(providerMessage(err))
	for _, keyword := range rateLimitKeywords {
		if strings.Contains(message, keyword) {
			return ClassRateLimited
		}
	}
	if errors.IsProtocol(err) {
		return ClassProtocol
	}
	return ClassUnknown
}

// providerMessage returns the text a provider put in err, leaving out
// endpoints and file names that may contain digits of their own.
func providerMessage(err error) string {
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) {
		return ""
	}
	return err.Error()
}
