package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotFound    = errors.New("not found")
	ErrRejected    = errors.New("request rejected")
	ErrBadResponse = errors.New("bad response")

	// ErrResponseTooLarge means the body exceeded the read limit. Retrying
	// will not help.
	ErrResponseTooLarge = errors.New("response too large")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRejected:
		return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusNotFound
	case ErrUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// Detail returns the server-supplied explanation carried by err, if any.
func Detail(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Detail
	}
	return ""
}

const maxDetailRunes = 200

// parseDetail pulls a human-readable message out of an error body. The
// backend answers with {"detail": "..."}; "error" and "message" keys are
// accepted too. Anything else is returned trimmed.
func parseDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		if items, ok := payload["detail"].([]any); ok {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if m, ok := item.(map[string]any); ok {
					if s, ok := m["msg"].(string); ok {
						msgs = append(msgs, s)
					}
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > maxDetailRunes {
		s = string(r[:maxDetailRunes])
	}
	return s
}
