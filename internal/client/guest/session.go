package guest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyPrefix namespaces remembered guests in the key/value store.
const KeyPrefix = "guest_session_"

// DefaultTTL is how long a remembered guest stays valid, counted from the
// moment the record was created.
const DefaultTTL = 365 * 24 * time.Hour

// Session is a remembered guest identity for one wedding.
type Session struct {
	GuestID   string `json:"guestId"`
	GuestName string `json:"guestName"`
	// Timestamp is the creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// CreatedAt returns Timestamp as a time.Time.
func (s Session) CreatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Expired reports whether the session is older than ttl at now.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt()) > ttl
}

func sessionKey(accessCode string) string {
	return KeyPrefix + accessCode
}

func normalizeCode(accessCode string) (string, error) {
	code := strings.TrimSpace(accessCode)
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccessCode)
	}
	return code, nil
}

func encodeSession(s Session) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode guest session: %w", err)
	}
	return b, nil
}

// decodeSession parses a stored record. A record without a guest id is as
// useless as an unreadable one and is reported as an error.
func decodeSession(b []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode guest session: %w", err)
	}
	if s.GuestID == "" {
		return Session{}, errors.New("decode guest session: missing guestId")
	}
	return s, nil
}
