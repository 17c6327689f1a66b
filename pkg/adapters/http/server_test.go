package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/jarvis"
	jhttp "github.com/aretw0/jarvis/pkg/adapters/http"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...jarvis.Option) http.Handler {
	t.Helper()
	a, err := jarvis.New(opts...)
	require.NoError(t, err)
	return jhttp.NewHandler(a, jhttp.WithVersion("v0.0.1-test"))
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, jhttp.OutcomeResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out jhttp.OutcomeResponse
	if rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp jhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthAndInfo(t *testing.T) {
	h := newHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.JSONEq(t, `{"app":"jarvis-http","version":"v0.0.1-test"}`, rr.Body.String())
}

func TestRunAndResume(t *testing.T) {
	h := newHandler(t)

	rr, out := post(t, h, "/v1/runs", `{"text":"Email alice@example.com about the launch"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, domain.OutcomeSuspended, out.Status)
	assert.Equal(t, "What should the email say?", out.Reply)
	assert.Equal(t, []string{"body"}, out.Missing)
	require.NotEmpty(t, out.Token)

	rr, done := post(t, h, "/v1/runs/resume", `{"token":"`+out.Token+`","input":"We ship on Friday"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, domain.OutcomeCompleted, done.Status)
	assert.Equal(t, out.RunID, done.RunID)
	assert.Contains(t, done.Reply, "Email to alice@example.com sent")

	// Tokens are single-use.
	rr, _ = post(t, h, "/v1/runs/resume", `{"token":"`+out.Token+`","input":"again"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, errorOf(t, rr), out.Token)
}

func TestStatusMapping(t *testing.T) {
	broken := ports.ExtractorFunc(func(context.Context, string, []domain.Message) (domain.Extraction, error) {
		return domain.Extraction{}, errors.New("model offline")
	})
	h := newHandler(t, jarvis.WithExtractor(broken), jarvis.WithMaxInputSize(64))

	cases := []struct {
		name, path, body string
		status           int
	}{
		{"failed run", "/v1/runs", `{"text":"email bob"}`, http.StatusUnprocessableEntity},
		{"unknown token", "/v1/runs/resume", `{"token":"nope","input":"x"}`, http.StatusNotFound},
		{"missing text", "/v1/runs", `{"text":"  "}`, http.StatusBadRequest},
		{"missing token", "/v1/runs/resume", `{"input":"x"}`, http.StatusBadRequest},
		{"malformed body", "/v1/runs", `{"text":`, http.StatusBadRequest},
		{"unknown field", "/v1/runs", `{"txt":"hi"}`, http.StatusBadRequest},
		{"oversized text", "/v1/runs", `{"text":"` + strings.Repeat("a", 65) + `"}`, http.StatusRequestEntityTooLarge},
		{"failed turn", "/v1/conversations/c1/messages", `{"text":"email bob"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := post(t, h, tc.path, tc.body)
			assert.Equal(t, tc.status, rr.Code)
			assert.NotEmpty(t, errorOf(t, rr))
		})
	}
}

func TestConversation(t *testing.T) {
	h := newHandler(t)

	rr, out := post(t, h, "/v1/conversations/c1/messages", `{"text":"Email alice@example.com about the launch"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.OutcomeSuspended, out.Status)

	rr, out = post(t, h, "/v1/conversations/c1/messages", `{"text":"We ship on Friday"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/v1/conversations/c1", nil))
	require.Equal(t, http.StatusOK, get.Code)
	var conv domain.Conversation
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &conv))
	assert.Len(t, conv.History, 4)
	assert.Empty(t, conv.PendingToken)

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/v1/conversations/other", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGetGraph(t *testing.T) {
	h := newHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/graph", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD\n"))
	assert.Contains(t, rr.Body.String(), "gather_info -.-> get_user_input")
}

func TestMetricsMount(t *testing.T) {
	a, err := jarvis.New()
	require.NoError(t, err)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jarvis_runs_total 1\n"))
	})

	rr := httptest.NewRecorder()
	jhttp.NewHandler(a, jhttp.WithMetricsHandler(metrics)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "jarvis_runs_total 1\n", rr.Body.String())

	rr = httptest.NewRecorder()
	jhttp.NewHandler(a).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/conversations/c1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}
	// The subscription is registered before the ping is written.
	readUntil("data: connected")

	msg, err := http.Post(srv.URL+"/v1/conversations/c1/messages", "application/json",
		bytes.NewReader([]byte(`{"text":"Search the web for release notes"}`)))
	require.NoError(t, err)
	msg.Body.Close()
	require.Equal(t, http.StatusOK, msg.StatusCode)

	readUntil("event: reply")
	data := readUntil("data: ")
	assert.Contains(t, data, `"status":"completed"`)
	assert.Contains(t, data, "release notes")
}
