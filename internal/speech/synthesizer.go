package speech

import (
	"context"
	"encoding/base64"
	"time"

	"voicechat/backend/internal/log"
)

// Options configure a Synthesizer. They are fixed at construction.
type Options struct {
	Enabled    bool
	MaxRetries int
	RetryDelay time.Duration
}

// Synthesizer turns reply text into base64-encoded audio with bounded retry.
type Synthesizer struct {
	engine Engine
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSynthesizer creates a Synthesizer. MaxRetries below one is treated as one.
func NewSynthesizer(engine Engine, opts Options) *Synthesizer {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Synthesizer{engine: engine, opts: opts, sleep: sleepContext}
}

// Enabled reports whether audio synthesis is switched on.
func (s *Synthesizer) Enabled() bool {
	return s != nil && s.opts.Enabled && s.engine != nil
}

// Synthesize returns the base64 audio for text spoken by voice. ok is false
// when synthesis is disabled, the engine canceled, every attempt failed or ctx
// ended while waiting to retry. It never fails the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (audio string, ok bool) {
	if !s.Enabled() {
		return "", false
	}

	ssml := BuildSSML(voice, text)
	log.Logger.Infow("synthesizing SSML", "ssml", log.Truncate(ssml, 100))

	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		res, err := s.engine.SpeakSSML(ctx, ssml)
		if err == nil {
			switch res.Reason {
			case ReasonCompleted:
				log.Logger.Infof("Speech synthesis completed. Audio data length: %d bytes.", len(res.Audio))
				return base64.StdEncoding.EncodeToString(res.Audio), true
			case ReasonCanceled:
				logCancellation(res.Cancellation)
				return "", false
			}
			err = errUnexpectedReason{res.Reason}
		}

		log.Logger.Errorw("TTS attempt failed", "attempt", attempt, "max_retries", s.opts.MaxRetries, "error", err)
		if attempt == s.opts.MaxRetries {
			log.Logger.Error("All TTS retries failed.")
			break
		}
		if err := s.sleep(ctx, s.opts.RetryDelay); err != nil {
			log.Logger.Warnw("TTS retry abandoned", "error", err)
			break
		}
	}
	return "", false
}

func logCancellation(d *CancellationDetails) {
	if d == nil {
		log.Logger.Error("Speech synthesis canceled")
		return
	}
	log.Logger.Errorw("Speech synthesis canceled", "reason", d.Reason)
	if d.Reason == CancellationError {
		log.Logger.Errorw("Speech synthesis error details", "code", d.ErrorCode, "details", log.Truncate(d.ErrorDetails, 200))
	}
}

type errUnexpectedReason struct{ reason ResultReason }

func (e errUnexpectedReason) Error() string {
	return "unexpected synthesis result: " + e.reason.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
