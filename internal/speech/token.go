package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/cache"
	"voicechat/backend/internal/config"
)

// TokenTTL is how long an issued STS token is reused. Azure tokens are valid
// for ten minutes.
const TokenTTL = 9 * time.Minute

// Token is the credential handed to the browser Speech SDK.
type Token struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

// ErrNotConfigured is returned by issuers that have no key or region.
var ErrNotConfigured = apperr.ConfigurationError("speech.IssueToken", "speech key or region not configured")

// TokenIssuer provides browser credentials for client-side speech recognition.
type TokenIssuer interface {
	IssueToken(ctx context.Context) (Token, error)
}

// NewTokenIssuer returns the issuer selected by cfg.TokenMode.
func NewTokenIssuer(cfg config.SpeechConfig, tokens cache.TokenCache) TokenIssuer {
	if cfg.TokenMode == config.TokenModeKey {
		return &KeyIssuer{key: cfg.Key, region: cfg.Region}
	}
	return NewSTSIssuer(cfg, tokens)
}

// STSIssuer exchanges the subscription key for short-lived access tokens.
type STSIssuer struct {
	endpoint   string
	key        string
	region     string
	cache      cache.TokenCache
	httpClient *http.Client
}

// NewSTSIssuer creates an issuer backed by the regional STS endpoint.
func NewSTSIssuer(cfg config.SpeechConfig, tokens cache.TokenCache) *STSIssuer {
	return &STSIssuer{
		endpoint:   cfg.STSEndpoint,
		key:        cfg.Key,
		region:     cfg.Region,
		cache:      tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// IssueToken returns a cached token or requests a new one.
func (s *STSIssuer) IssueToken(ctx context.Context) (Token, error) {
	const op = "speech.IssueToken"

	if s.key == "" || s.region == "" {
		return Token{}, ErrNotConfigured
	}

	cacheKey := cache.ComputeKey(s.region, s.key)
	if tok, ok := s.cache.Get(cacheKey); ok {
		return Token{Token: tok, Region: s.region}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, http.NoBody)
	if err != nil {
		return Token{}, apperr.E(apperr.Internal, op, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Token{}, apperr.ProviderError(op, fmt.Errorf("sts request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return Token{}, apperr.ProviderError(op, fmt.Errorf("read sts response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, apperr.ProviderError(op, fmt.Errorf("sts returned status %d", resp.StatusCode))
	}

	tok := strings.TrimSpace(string(body))
	if tok == "" {
		return Token{}, apperr.ProviderError(op, errors.New("sts returned an empty token"))
	}
	s.cache.Set(cacheKey, tok, TokenTTL)
	return Token{Token: tok, Region: s.region}, nil
}

// KeyIssuer hands out the subscription key itself. It exists for clients that
// initialise the Speech SDK from a key rather than an authorization token.
type KeyIssuer struct {
	key    string
	region string
}

// IssueToken returns the raw subscription key and region.
func (k *KeyIssuer) IssueToken(context.Context) (Token, error) {
	if k.key == "" || k.region == "" {
		return Token{}, ErrNotConfigured
	}
	return Token{Token: k.key, Region: k.region}, nil
}
