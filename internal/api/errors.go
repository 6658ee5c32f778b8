package api

import "fmt"

// StatusError is returned for non-2xx responses on endpoints that check
// status. Body holds the raw response text, which the UI surfaces verbatim.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return e.Body
}

// Message returns the response body text, or fallback when the body was
// empty. Login uses this to default to "Invalid credentials".
func (e *StatusError) Message(fallback string) string {
	if e.Body == "" {
		return fallback
	}
	return e.Body
}
