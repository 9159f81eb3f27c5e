package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/backend/internal/apperr"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPEECH_KEY", "speech-key")
	t.Setenv("SPEECH_REGION", "westeurope")
	t.Setenv("AZURE_OPENAI_API_KEY", "aoai-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")
	t.Setenv("AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME", "text-embedding-3-small")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, DefaultVoice, cfg.Audio.Voice)
	assert.Equal(t, 3, cfg.Audio.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Audio.RetryDelay)
	assert.Equal(t, TokenModeSTS, cfg.Speech.TokenMode)
	assert.Equal(t, "https://westeurope.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Speech.Endpoint)
	assert.Equal(t, "https://westeurope.api.cognitive.microsoft.com/sts/v1.0/issueToken", cfg.Speech.STSEndpoint)
	assert.Equal(t, LLMProviderAzure, cfg.LLM.Provider)
	assert.Equal(t, DefaultAzureOpenAIVersion, cfg.LLM.Azure.APIVersion)
	assert.False(t, cfg.Search.Enabled())
}

func TestLoadConfigMissingSpeechIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("SPEECH_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Configuration))
}

func TestLoadConfigMissingCompletionIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Configuration))
}

func TestLoadConfigPartialSearchDisablesRetrieval(t *testing.T) {
	setRequired(t)
	t.Setenv("AZURE_SEARCH_SERVICE_ENDPOINT", "https://search.example.net")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Search.Enabled())
	assert.True(t, cfg.Search.Partial())
}

func TestLoadConfigSearchEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("AZURE_SEARCH_SERVICE_ENDPOINT", "https://search.example.net/")
	t.Setenv("AZURE_SEARCH_INDEX_NAME", "docs")
	t.Setenv("AZURE_SEARCH_API_KEY", "search-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Search.Enabled())
	assert.Equal(t, "https://search.example.net", cfg.Search.Endpoint)
	assert.Equal(t, DefaultSearchVectorField, cfg.Search.VectorField)
}

func TestLoadConfigSearchRequiresEmbeddingsDeployment(t *testing.T) {
	setRequired(t)
	t.Setenv("AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME", "")
	t.Setenv("AZURE_SEARCH_SERVICE_ENDPOINT", "https://search.example.net")
	t.Setenv("AZURE_SEARCH_INDEX_NAME", "docs")
	t.Setenv("AZURE_SEARCH_API_KEY", "search-key")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME")
}

func TestLoadConfigAudioOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHOULD_STREAM_AUDIO_FROM_CHAT_COMPLETION", "false")
	t.Setenv("VOICE_NAME_CHAT_COMPLETION", "en-GB-SoniaNeural")
	t.Setenv("TTS_MAX_RETRIES", "5")
	t.Setenv("TTS_RETRY_DELAY", "500ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, "en-GB-SoniaNeural", cfg.Audio.Voice)
	assert.Equal(t, 5, cfg.Audio.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Audio.RetryDelay)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SHOULD_STREAM_AUDIO_FROM_CHAT_COMPLETION": "sometimes",
		"SPEECH_TOKEN_MODE":                        "jwt",
		"LLM_PROVIDER":                             "bard",
		"EMBEDDING_PROVIDER":                       "word2vec",
		"TTS_RETRY_DELAY":                          "soon",
		"RATE_LIMIT_PER_MINUTE":                    "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Configuration))
		})
	}
}

func TestLoadConfigOpenAIProvider(t *testing.T) {
	t.Setenv("SPEECH_KEY", "speech-key")
	t.Setenv("SPEECH_REGION", "eastus")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, DefaultOpenAIChatModel, cfg.LLM.OpenAI.ChatModel)
}

func TestValidateIngestionNeedsOnlySearchAndEmbeddings(t *testing.T) {
	t.Setenv("SPEECH_KEY", "")
	t.Setenv("AZURE_SEARCH_SERVICE_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "aoai-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME", "text-embedding-3-small")

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.ValidateIngestion()
	assert.True(t, apperr.Is(err, apperr.Configuration))

	t.Setenv("AZURE_SEARCH_SERVICE_ENDPOINT", "https://search.example.net")
	t.Setenv("AZURE_SEARCH_INDEX_NAME", "docs")
	t.Setenv("AZURE_SEARCH_API_KEY", "search-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateIngestion())
}
