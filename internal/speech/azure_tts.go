package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicechat/backend/internal/config"
)

// OutputFormat is the audio encoding requested from Azure Speech.
const OutputFormat = "audio-16khz-32kbitrate-mono-mp3"

const userAgent = "voicechat-backend"

// AzureEngine calls the Azure Speech text-to-speech REST endpoint.
// It is safe for concurrent use.
type AzureEngine struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

// NewAzureEngine creates an engine for the configured region or endpoint.
func NewAzureEngine(cfg config.SpeechConfig) *AzureEngine {
	return &AzureEngine{
		endpoint:   cfg.Endpoint,
		key:        cfg.Key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SpeakSSML posts the SSML document and returns the encoded audio. Requests
// the service rejects as invalid or unauthorized come back as a canceled
// Result; throttling, server errors and transport failures are errors.
func (e *AzureEngine) SpeakSSML(ctx context.Context, ssml string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(ssml))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", OutputFormat)
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		audio, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("read tts audio: %w", err)
		}
		if len(audio) == 0 {
			return Result{}, errors.New("tts returned no audio")
		}
		return Result{Reason: ReasonCompleted, Audio: audio}, nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnsupportedMediaType:
		return Result{
			Reason: ReasonCanceled,
			Cancellation: &CancellationDetails{
				Reason:       CancellationError,
				ErrorCode:    resp.StatusCode,
				ErrorDetails: readDetails(resp.Body),
			},
		}, nil
	default:
		return Result{}, fmt.Errorf("tts service returned status %d: %s", resp.StatusCode, readDetails(resp.Body))
	}
}

func readDetails(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
