package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/relaylabs/relay-agent/internal/adapters/http"
	"github.com/relaylabs/relay-agent/internal/adapters/llm"
	"github.com/relaylabs/relay-agent/internal/adapters/storage/memory"
	"github.com/relaylabs/relay-agent/internal/app/chat"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	svc := chat.NewService(llm.NewMockModel(), memory.NewLogStore(), nil)
	return httpadapter.NewServer(svc)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPostMessageAndReadTimeline(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"user_id":"u1","text":"Schedule lunch Friday"}`)
	req := httptest.NewRequest(http.MethodPost, "/chats/c1/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())

	var posted struct {
		UserMessage struct {
			Text string `json:"text"`
			Kind string `json:"kind"`
		} `json:"user_message"`
		SystemMessage struct {
			Text   string `json:"text"`
			Kind   string `json:"kind"`
			System bool   `json:"system"`
		} `json:"system_message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))

	assert.Equal(t, "user_query", posted.UserMessage.Kind)
	assert.Equal(t, "calendar_tool", posted.SystemMessage.Kind)
	assert.True(t, posted.SystemMessage.System)
	assert.True(t, strings.HasPrefix(posted.SystemMessage.Text, "Intent Classified: calendar_tool."))

	// Timeline shows both records, user first.
	req = httptest.NewRequest(http.MethodGet, "/chats/c1/messages", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var timeline struct {
		Messages []struct {
			Kind   string `json:"kind"`
			System bool   `json:"system"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &timeline))
	require.Len(t, timeline.Messages, 2)
	assert.Equal(t, "user_query", timeline.Messages[0].Kind)
	assert.True(t, timeline.Messages[1].System)
}

func TestPostMessageValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := map[string]string{
		"invalid json": `{`,
		"missing user": `{"text":"hi"}`,
		"empty text":   `{"user_id":"u1","text":"  "}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chats/c1/messages", strings.NewReader(body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/chats/c1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/chats/c1/messages", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/chats/c1/messages", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
