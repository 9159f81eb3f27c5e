package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("chat: %w", ProviderError("llm.Complete", base))

	assert.Equal(t, Provider, KindOf(err))
	assert.True(t, Is(err, Provider))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "llm.Complete: connection reset")
}

func TestKindOfPlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Internal))
}

func TestConfigurationError(t *testing.T) {
	err := ConfigurationError("config.Validate", "%s must be set", "SPEECH_KEY")
	assert.True(t, Is(err, Configuration))
	assert.Equal(t, "config.Validate: SPEECH_KEY must be set", err.Error())
}
