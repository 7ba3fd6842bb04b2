package prismic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("prismic: document not found")

	// ErrInvalidCursor is returned when a cursor is not a search URL of the
	// configured repository.
	ErrInvalidCursor = errors.New("prismic: invalid cursor")

	// ErrPreviewUnresolved is returned when a preview token and document ID
	// do not resolve to a URL.
	ErrPreviewUnresolved = errors.New("prismic: preview unresolved")
)

// APIError is a non-200 response from the content API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &APIError{Status: status, Message: msg}
}
