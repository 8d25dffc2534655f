package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", 5*time.Second, logging.Discard())
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestStartScrape_SendsURLAndReturnsJobID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/scrape/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err, "request id must be a uuid")

		body := decodeBody(t, r)
		assert.Equal(t, "https://example.com/wedding", body["url"])

		_, _ = w.Write([]byte(`{"job_id":"job-123"}`))
	})

	id, err := c.StartScrape(context.Background(), "https://example.com/wedding")
	require.NoError(t, err)
	assert.Equal(t, "job-123", id)
}

func TestStartScrape_NumericJobID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"job_id":42}`))
	})

	id, err := c.StartScrape(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestStartScrape_MissingJobID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.StartScrape(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestStartScrape_RejectedURLCarriesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid URL format"}`))
	})

	_, err := c.StartScrape(context.Background(), "not a url")
	require.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Invalid URL format", Detail(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestScrapeStatus_DecodesCompletedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/scrape/status/job%2F1", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{
			"status":"completed","progress":100,"message":"Done",
			"platform":"theknot",
			"preview":{"couple":"A & B"},
			"data":{"venue":"Hall"}
		}`))
	})

	st, err := c.ScrapeStatus(context.Background(), "job/1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.InDelta(t, 100, st.Progress, 0.001)
	require.NotNil(t, st.Message)
	assert.Equal(t, "Done", *st.Message)
	assert.Equal(t, "theknot", st.Platform)
	assert.JSONEq(t, `{"couple":"A & B"}`, string(st.Preview))
	assert.JSONEq(t, `{"venue":"Hall"}`, string(st.Data))
	assert.Nil(t, st.Error)
}

func TestScrapeStatus_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	})

	_, err := c.ScrapeStatus(context.Background(), "j")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "upstream timeout", Detail(err))
}

func TestScrapeStatus_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New(base, time.Second, logging.Discard())
	_, err := c.ScrapeStatus(context.Background(), "j")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestScrapeStatus_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.ScrapeStatus(context.Background(), "j")
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestRequestLogsCarryContext(t *testing.T) {
	seenID := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID <- r.Header.Get(RequestIDHeader)
		_, _ = w.Write([]byte(`{"status":"processing","progress":5}`))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	c := New(srv.URL, time.Second, logger)

	ctx := logging.ContextWith(context.Background(), "command", "import")
	_, err := c.ScrapeStatus(ctx, "job-9")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "request done", rec["msg"])
	assert.Equal(t, "import", rec["command"])
	assert.Equal(t, "/scrape/status/job-9", rec["path"])
	assert.Equal(t, <-seenID, rec["request_id"])
	assert.Equal(t, float64(200), rec["status"])
}

func TestScrapeStatus_OversizedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"completed","data":{"pages":"` + strings.Repeat("x", 64) + `"}}`))
	})
	c.maxBodySize = 32

	_, err := c.ScrapeStatus(context.Background(), "j")
	require.ErrorIs(t, err, ErrResponseTooLarge)
	assert.NotErrorIs(t, err, ErrBadResponse)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestScrapeStatus_BodyAtLimit(t *testing.T) {
	body := `{"status":"processing"}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	c.maxBodySize = int64(len(body))

	st, err := c.ScrapeStatus(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, st.Status)
}

func TestParseDetail_TruncatesOnRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("é", maxDetailRunes+10))

	got := parseDetail(body)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxDetailRunes, utf8.RuneCountInString(got))
}

func TestScrapeStatus_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ScrapeStatus(ctx, "j")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyGuest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/guest/g-7/verify", r.URL.Path)
		_, _ = w.Write([]byte(`{"valid":true,"guest_id":7,"guest_name":"Ann","phone_number":"4321"}`))
	})

	v, err := c.VerifyGuest(context.Background(), "g-7")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, ID("7"), v.GuestID)
	assert.Equal(t, "Ann", v.GuestName)
	assert.Equal(t, "4321", v.PhoneLast4)
}

func TestVerifyGuest_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Guest not found"}`))
	})

	_, err := c.VerifyGuest(context.Background(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestRegisterGuest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wedding/by-access-code/smith%20jones/register", r.URL.EscapedPath())
		body := decodeBody(t, r)
		assert.Equal(t, "Ann", body["name"])
		assert.Equal(t, "+15551234567", body["phone_number"])
		_, hasEmail := body["email"]
		assert.False(t, hasEmail, "empty email must be omitted")

		_, _ = w.Write([]byte(`{"success":true,"guest_id":"g1","guest_name":"Ann","chat_url":"/chat/x","already_registered":true}`))
	})

	reg, err := c.RegisterGuest(context.Background(), "smith jones", RegistrationRequest{Name: "Ann", PhoneNumber: "+15551234567"})
	require.NoError(t, err)
	assert.True(t, reg.Success)
	assert.Equal(t, ID("g1"), reg.GuestID)
	assert.True(t, reg.AlreadyRegistered)
}

func TestRegisterGuest_ValidationDetailList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"phone_number is required"},{"msg":"name too short"}]}`))
	})

	_, err := c.RegisterGuest(context.Background(), "code", RegistrationRequest{})
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "phone_number is required; name too short", Detail(err))
}

func TestStartChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/start", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "code", body["access_code"])
		assert.Equal(t, "Ann", body["guest_name"])
		_, _ = w.Write([]byte(`{"session_id":"s1","greeting":"Hi Ann!","wedding_title":"A & B"}`))
	})

	cs, err := c.StartChat(context.Background(), "code", "Ann")
	require.NoError(t, err)
	assert.Equal(t, ID("s1"), cs.SessionID)
	assert.Equal(t, "Hi Ann!", cs.Greeting)
	assert.Equal(t, "A & B", cs.WeddingTitle)
}

func TestStartChat_AnonymousOmitsName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		_, hasName := body["guest_name"]
		assert.False(t, hasName)
		_, _ = w.Write([]byte(`{"session_id":"s1"}`))
	})

	_, err := c.StartChat(context.Background(), "code", "")
	require.NoError(t, err)
}

func TestSendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "s1", body["session_id"])
		assert.Equal(t, "Where is parking?", body["message"])
		_, _ = w.Write([]byte(`{"response":"Behind the venue.","session_id":"s1"}`))
	})

	reply, err := c.SendMessage(context.Background(), "s1", "Where is parking?")
	require.NoError(t, err)
	assert.Equal(t, "Behind the venue.", reply.Response)
}

func TestID_UnmarshalJSON(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":12,"c":null}`), &v))
	assert.Equal(t, ID("x"), v.A)
	assert.Equal(t, ID("12"), v.B)
	assert.Equal(t, ID(""), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
