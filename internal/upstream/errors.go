package upstream

import (
	"errors"
	"fmt"
	"strings"
)

// RateLimitError is returned when the upstream kept answering 429 until the
// retry budget ran out.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by upstream after %d attempts", e.Attempts)
}

// HTTPError represents a non-429 error status from the upstream API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError means the upstream answered 2xx but the body was not valid JSON.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed upstream response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// InputRejectedError means the upstream returned no candidates at all,
// which in practice is a safety-policy rejection of the prompt or input image.
type InputRejectedError struct {
	// BlockReason is the upstream's prompt feedback reason, when present.
	BlockReason string
}

func (e *InputRejectedError) Error() string {
	msg := "request rejected by upstream, likely due to the prompt or input image violating content policy"
	if e.BlockReason != "" {
		msg += " (block reason: " + e.BlockReason + ")"
	}
	return msg
}

// SafetyRating is one per-candidate policy classification from the upstream.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

// SafetyFilteredError means a candidate came back, but its image output was
// suppressed; Ratings holds the classifier verdicts the upstream attached.
type SafetyFilteredError struct {
	Ratings []SafetyRating
}

func (e *SafetyFilteredError) Error() string {
	parts := make([]string, 0, len(e.Ratings))
	for _, r := range e.Ratings {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Category, r.Probability))
	}
	return "image generation blocked by safety filters: " + strings.Join(parts, ", ")
}

// UnknownShapeError means the response carried neither a prediction image nor
// inline data and nothing explained why. Body is preserved for diagnostics.
type UnknownShapeError struct {
	Body string
}

func (e *UnknownShapeError) Error() string {
	return "no image data found in upstream response"
}

// IsRateLimited reports whether err is a retry-exhausted rate limit failure.
func IsRateLimited(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}

// IsInputRejected reports whether err is an upstream rejection of the input.
func IsInputRejected(err error) bool {
	var e *InputRejectedError
	return errors.As(err, &e)
}
