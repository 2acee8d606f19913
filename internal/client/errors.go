package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const genericFailure = "update failed, please try again later"

// fieldPriority is the order in which field errors are surfaced to a user
// when a form submission fails.
var fieldPriority = []string{"real_name", "nickname", "phone", "portrait"}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int
	// Fields holds per-field messages, e.g. {"phone": ["enter a valid phone number"]}.
	Fields map[string][]string
	Detail string
	// Kind is the phone validation kind, when the server reported one.
	Kind       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message())
}

// Message picks the single message to show: the first field error in form
// order, then the detail, then any other field, then a generic failure.
func (e *APIError) Message() string {
	for _, field := range fieldPriority {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	if e.Detail != "" {
		return e.Detail
	}
	rest := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		rest = append(rest, field)
	}
	sort.Strings(rest)
	for _, field := range rest {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return genericFailure
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Fields: map[string][]string{}}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
			apiErr.Detail = text
		} else {
			apiErr.Detail = http.StatusText(status)
		}
		return apiErr
	}

	for key, value := range raw {
		switch key {
		case "detail":
			_ = json.Unmarshal(value, &apiErr.Detail)
		case "kind":
			_ = json.Unmarshal(value, &apiErr.Kind)
		case "retry_after":
			var secs int
			if json.Unmarshal(value, &secs) == nil {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		default:
			var msgs []string
			if json.Unmarshal(value, &msgs) == nil {
				apiErr.Fields[key] = msgs
			}
		}
	}
	return apiErr
}
