package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

// RequestIDHeader carries a per-request uuid for correlating client and
// server logs.
const RequestIDHeader = "X-Request-ID"

// maxBodySize caps how much of a response body is read. Scrape results can
// hold a whole wedding website worth of data, so the cap is generous.
const maxBodySize = 16 << 20

// Client talks to the backend REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      logging.Logger
	maxBodySize int64
}

// New creates a Client for baseURL (e.g. "https://api.example.com/api").
// timeout bounds every request; zero means no client-side limit.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// StartScrape submits a wedding website URL and returns the job id.
func (c *Client) StartScrape(ctx context.Context, websiteURL string) (string, error) {
	var resp startScrapeResponse
	if err := c.do(ctx, http.MethodPost, "/scrape/start", startScrapeRequest{URL: websiteURL}, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: response has no job_id", ErrBadResponse)
	}
	return resp.JobID.String(), nil
}

// ScrapeStatus fetches the current state of a scrape job.
func (c *Client) ScrapeStatus(ctx context.Context, jobID string) (*ScrapeStatus, error) {
	var resp ScrapeStatus
	if err := c.do(ctx, http.MethodGet, "/scrape/status/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyGuest checks that a remembered guest id still exists server-side.
func (c *Client) VerifyGuest(ctx context.Context, guestID string) (*GuestVerification, error) {
	var resp GuestVerification
	if err := c.do(ctx, http.MethodGet, "/guest/"+url.PathEscape(guestID)+"/verify", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterGuest signs a guest up for the wedding identified by accessCode.
func (c *Client) RegisterGuest(ctx context.Context, accessCode string, req RegistrationRequest) (*Registration, error) {
	var resp Registration
	path := "/wedding/by-access-code/" + url.PathEscape(accessCode) + "/register"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartChat opens a chat session. guestName may be empty for anonymous chats.
func (c *Client) StartChat(ctx context.Context, accessCode, guestName string) (*ChatStart, error) {
	var resp ChatStart
	req := startChatRequest{AccessCode: accessCode, GuestName: guestName}
	if err := c.do(ctx, http.MethodPost, "/chat/start", req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: response has no session_id", ErrBadResponse)
	}
	return &resp, nil
}

// SendMessage posts a guest message and returns the assistant's answer.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	var resp ChatReply
	req := chatMessageRequest{SessionID: sessionID, Message: message}
	if err := c.do(ctx, http.MethodPost, "/chat/message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	ctx = logging.ContextWith(ctx, "method", method, "path", path, "request_id", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "request failed", "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if int64(len(data)) > c.maxBodySize {
		c.logger.Warn(ctx, "response body over limit", "limit", c.maxBodySize)
		return fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBodySize)
	}

	c.logger.Debug(ctx, "request done", "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", ErrBadResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}
