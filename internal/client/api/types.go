package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque server identifier. The backend may send it as a JSON
// string or number; it is always handled as a string client-side.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Scrape job statuses reported by the backend.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type startScrapeRequest struct {
	URL string `json:"url"`
}

type startScrapeResponse struct {
	JobID ID `json:"job_id"`
}

// ScrapeStatus is one poll result for a scrape job.
type ScrapeStatus struct {
	Status   string          `json:"status"`
	Progress float64         `json:"progress"`
	Message  *string         `json:"message,omitempty"`
	Platform string          `json:"platform,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Preview  json.RawMessage `json:"preview,omitempty"`
	Error    *string         `json:"error,omitempty"`
}

// GuestVerification answers whether a remembered guest id is still valid.
// PhoneLast4 only ever holds the last four digits.
type GuestVerification struct {
	Valid      bool   `json:"valid"`
	GuestID    ID     `json:"guest_id"`
	GuestName  string `json:"guest_name"`
	PhoneLast4 string `json:"phone_number"`
}

// RegistrationRequest is the guest sign-up form.
type RegistrationRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
}

type Registration struct {
	Success           bool   `json:"success"`
	GuestID           ID     `json:"guest_id"`
	GuestName         string `json:"guest_name"`
	ChatURL           string `json:"chat_url"`
	AlreadyRegistered bool   `json:"already_registered"`
}

type startChatRequest struct {
	AccessCode string `json:"access_code"`
	GuestName  string `json:"guest_name,omitempty"`
}

// ChatStart is the opening of a chat session.
type ChatStart struct {
	SessionID    ID     `json:"session_id"`
	Greeting     string `json:"greeting"`
	WeddingTitle string `json:"wedding_title"`
}

type chatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatReply struct {
	Response  string `json:"response"`
	SessionID ID     `json:"session_id"`
}
