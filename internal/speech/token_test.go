package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/cache"
	"voicechat/backend/internal/config"
)

func TestSTSIssuerCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "speech-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		_, _ = w.Write([]byte("eyJhbGciOi.short-lived\n"))
	}))
	defer srv.Close()

	issuer := NewTokenIssuer(config.SpeechConfig{
		Key:         "speech-key",
		Region:      "westeurope",
		STSEndpoint: srv.URL,
		TokenMode:   config.TokenModeSTS,
	}, cache.NewInMemoryCache())

	for i := 0; i < 3; i++ {
		tok, err := issuer.IssueToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Token{Token: "eyJhbGciOi.short-lived", Region: "westeurope"}, tok)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestSTSIssuerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	issuer := NewSTSIssuer(config.SpeechConfig{Key: "bad", Region: "westeurope", STSEndpoint: srv.URL}, cache.NewInMemoryCache())
	_, err := issuer.IssueToken(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Provider))
	assert.NotContains(t, err.Error(), "bad")
}

func TestKeyIssuerReturnsRawKey(t *testing.T) {
	issuer := NewTokenIssuer(config.SpeechConfig{Key: "speech-key", Region: "eastus", TokenMode: config.TokenModeKey}, cache.NewInMemoryCache())
	tok, err := issuer.IssueToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Token{Token: "speech-key", Region: "eastus"}, tok)
}

func TestIssuersRequireKeyAndRegion(t *testing.T) {
	for _, mode := range []config.TokenMode{config.TokenModeSTS, config.TokenModeKey} {
		issuer := NewTokenIssuer(config.SpeechConfig{Region: "westeurope", TokenMode: mode}, cache.NewInMemoryCache())

		_, err := issuer.IssueToken(context.Background())

		assert.ErrorIs(t, err, ErrNotConfigured, string(mode))
		assert.True(t, apperr.Is(err, apperr.Configuration))
	}
}
