package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TransientError marks a fetch failure that exhausted its retries but
// should not abort the poll cycle; gathered records remain usable.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient provider failure (%s): %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ClientError marks a non-retriable provider rejection (4xx other than
// 429, or an unparseable response). It aborts the cycle.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider rejected request: %s", e.Message)
}

// AuthFailure reports whether the rejection is an authentication problem.
func (e *ClientError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseAPIError(status int, payload []byte) *ClientError {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return &ClientError{StatusCode: status, Message: apiErr.Message}
		}
		if apiErr.Error != "" {
			return &ClientError{StatusCode: status, Message: apiErr.Error}
		}
	}
	if len(payload) > 0 {
		body := strings.TrimSpace(string(payload))
		if len(body) > 1000 {
			body = body[:1000]
		}
		return &ClientError{StatusCode: status, Message: body}
	}
	return &ClientError{StatusCode: status, Message: "request failed"}
}
