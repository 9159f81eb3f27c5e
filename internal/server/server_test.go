package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/backend/internal/cache"
	"voicechat/backend/internal/chat"
	"voicechat/backend/internal/config"
	"voicechat/backend/internal/speech"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChatter struct {
	calls   int
	message string
	history []chat.Turn
	resp    chat.Response
	explode bool
}

func (s *stubChatter) HandleTurn(_ context.Context, msg string, history []chat.Turn) chat.Response {
	if s.explode {
		panic("boom")
	}
	s.calls++
	s.message = msg
	s.history = history
	return s.resp
}

type stubIssuer struct {
	tok speech.Token
	err error
}

func (s stubIssuer) IssueToken(context.Context) (speech.Token, error) { return s.tok, s.err }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChatSuccess(t *testing.T) {
	audio := "QQ=="
	chatter := &stubChatter{resp: chat.Response{
		Text:  "Hi there!",
		Audio: &audio,
		ConversationHistory: []chat.Turn{
			{Role: "user", Content: "Hello"},
			{Role: "assistant", Content: "Hi there!"},
		},
	}}
	h := New(chatter, stubIssuer{}, Options{}).Handler()

	rec := do(t, h, http.MethodPost, "/chat", `{"message":"Hello","conversation_history":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Hi there!", body["text"])
	assert.Equal(t, "QQ==", body["audio"])
	assert.Len(t, body["conversation_history"], 2)
	assert.NotContains(t, body, "error")
	assert.Equal(t, "Hello", chatter.message)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestChatPassesHistory(t *testing.T) {
	chatter := &stubChatter{}
	h := New(chatter, stubIssuer{}, Options{}).Handler()

	rec := do(t, h, http.MethodPost, "/chat",
		`{"message":"Capital of France?","conversation_history":[{"role":"user","content":"Hello"},{"role":"assistant","content":"Hi there!"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []chat.Turn{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there!"},
	}, chatter.history)
}

func TestChatEmptyMessage(t *testing.T) {
	for name, body := range map[string]string{
		"empty string":    `{"message":""}`,
		"missing message": `{"conversation_history":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			chatter := &stubChatter{}
			h := New(chatter, stubIssuer{}, Options{}).Handler()

			rec := do(t, h, http.MethodPost, "/chat", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": errEmptyMessage}, decode(t, rec))
			assert.Zero(t, chatter.calls)
		})
	}
}

func TestChatInvalidBody(t *testing.T) {
	for name, body := range map[string]string{
		"malformed json": `{"message":`,
		"unknown role":   `{"message":"hi","conversation_history":[{"role":"robot","content":"x"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			chatter := &stubChatter{}
			h := New(chatter, stubIssuer{}, Options{}).Handler()

			rec := do(t, h, http.MethodPost, "/chat", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, errInvalidBody, decode(t, rec)["error"])
			assert.Zero(t, chatter.calls)
		})
	}
}

func TestChatPanicReturnsGenericError(t *testing.T) {
	h := New(&stubChatter{explode: true}, stubIssuer{}, Options{}).Handler()

	rec := do(t, h, http.MethodPost, "/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": errInternal, "text": errInternalText}, decode(t, rec))
}

func TestSTSToken(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{tok: speech.Token{Token: "abc", Region: "eastus"}}, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/sts_token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"token": "abc", "region": "eastus"}, decode(t, rec))
}

func TestSTSTokenFailure(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{err: errors.New("sts down")}, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/sts_token", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errSpeechToken, decode(t, rec)["error"])
}

func TestHealthz(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{}, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestIndexPage(t *testing.T) {
	dir := t.TempDir()
	page := `<html>{{ .azure_speech_region }} {{ .should_stream_audio }}</html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	h := New(&stubChatter{}, stubIssuer{}, Options{StaticDir: dir, SpeechRegion: "westeurope", AudioEnabled: true}).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "westeurope true")

	rec = do(t, h, http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log(1)")
}

func TestNoIndexPageWithoutStaticDir(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{}, Options{StaticDir: t.TempDir()}).Handler()

	rec := do(t, h, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{}, Options{RateLimitPerMinute: 2}).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	h := New(&stubChatter{}, stubIssuer{}, Options{AllowedOrigins: []string{"https://app.example"}}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSTSTokenNotConfigured(t *testing.T) {
	issuer := speech.NewTokenIssuer(config.SpeechConfig{TokenMode: config.TokenModeKey}, cache.NewInMemoryCache())
	h := New(&stubChatter{}, issuer, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/sts_token", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": errSpeechConfig}, decode(t, rec))
}
