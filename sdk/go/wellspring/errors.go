package wellspring

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a structured error returned by the Wellspring server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("wellspring: %s (status %d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("wellspring: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether the error is a 404 response.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsRateLimited reports whether the error is a 429 response.
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var wire struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		apiErr.Message = wire.Error
		apiErr.Details = wire.Details
	}
	return apiErr
}
