package services

import "fmt"

// ConfigurationError means the upstream credential or endpoint is missing;
// the request cannot proceed and no upstream call is made.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// RateLimitError maps an upstream HTTP 429; the caller may retry later.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// QuotaError maps an upstream HTTP 402; retrying will not help the user.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return e.Message
}

// UpstreamError is any other non-2xx or malformed initial upstream response.
// Body is kept for server-side logs and never forwarded to the client.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}
