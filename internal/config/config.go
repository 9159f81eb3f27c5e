package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voicechat/backend/internal/apperr"
)

// LLMProvider selects the chat-completion backend.
type LLMProvider string

const (
	LLMProviderAzure  LLMProvider = "azure"
	LLMProviderOpenAI LLMProvider = "openai"
)

// EmbeddingProvider represents the type of embedding provider
type EmbeddingProvider string

const (
	ProviderAzure       EmbeddingProvider = "azure"
	ProviderOpenAI      EmbeddingProvider = "openai"
	ProviderLocal       EmbeddingProvider = "local"
	ProviderHuggingFace EmbeddingProvider = "huggingface"
)

// TokenMode controls what GET /sts_token hands to the browser.
type TokenMode string

const (
	// TokenModeSTS issues short-lived tokens from the regional STS endpoint.
	TokenModeSTS TokenMode = "sts"
	// TokenModeKey returns the subscription key itself.
	TokenModeKey TokenMode = "key"
)

const (
	DefaultPort                 = "8000"
	DefaultVoice                = "en-US-AvaNeural"
	DefaultMaxRetries           = 3
	DefaultRetryDelay           = 2 * time.Second
	DefaultAzureOpenAIVersion   = "2024-12-01-preview"
	DefaultSearchAPIVersion     = "2024-07-01"
	DefaultSearchVectorField    = "contentVector"
	DefaultOpenAIChatModel      = "gpt-4o-mini"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `json:"server"`
	Speech    SpeechConfig    `json:"speech"`
	Audio     AudioConfig     `json:"audio"`
	LLM       LLMConfig       `json:"llm"`
	Embedding EmbeddingConfig `json:"embedding"`
	Search    SearchConfig    `json:"search"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port               string   `json:"port"`
	StaticDir          string   `json:"static_dir"`
	LogFormat          string   `json:"log_format"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	AllowedOrigins     []string `json:"allowed_origins"`
}

// SpeechConfig holds Azure Speech credentials and endpoints
type SpeechConfig struct {
	Key         string    `json:"-"`
	Region      string    `json:"region"`
	Endpoint    string    `json:"endpoint"`
	STSEndpoint string    `json:"sts_endpoint"`
	TokenMode   TokenMode `json:"token_mode"`
}

// AudioConfig controls synthesis of assistant replies
type AudioConfig struct {
	Enabled    bool          `json:"enabled"`
	Voice      string        `json:"voice"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
}

// LLMConfig holds chat-completion provider settings
type LLMConfig struct {
	Provider LLMProvider       `json:"provider"`
	Azure    AzureOpenAIConfig `json:"azure"`
	OpenAI   OpenAIConfig      `json:"openai"`
}

// AzureOpenAIConfig holds Azure OpenAI settings shared by chat and embeddings
type AzureOpenAIConfig struct {
	APIKey               string `json:"-"`
	Endpoint             string `json:"endpoint"`
	APIVersion           string `json:"api_version"`
	ChatDeployment       string `json:"chat_deployment"`
	EmbeddingsDeployment string `json:"embeddings_deployment"`
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey         string `json:"-"`
	ChatModel      string `json:"chat_model"`
	EmbeddingModel string `json:"embedding_model"`
}

// EmbeddingConfig holds configuration for embedding providers
type EmbeddingConfig struct {
	Provider    EmbeddingProvider `json:"provider"`
	Local       LocalConfig       `json:"local"`
	HuggingFace HuggingFaceConfig `json:"huggingface"`
	Dimensions  int               `json:"dimensions"` // Auto-detected if 0
}

// LocalConfig holds local embedding server configuration
type LocalConfig struct {
	ServerURL  string `json:"server_url"`
	ModelName  string `json:"model_name"`
	Timeout    int    `json:"timeout_seconds"`
	ServerType string `json:"server_type"` // "tei", "ollama", "custom"
}

// HuggingFaceConfig holds HuggingFace model configuration
type HuggingFaceConfig struct {
	ModelID   string `json:"model_id"`
	Token     string `json:"-"`
	MaxLength int    `json:"max_length"`
}

// SearchConfig holds Azure AI Search settings. All three of endpoint, index
// and key must be present for retrieval to be enabled.
type SearchConfig struct {
	Endpoint    string `json:"endpoint"`
	IndexName   string `json:"index_name"`
	APIKey      string `json:"-"`
	APIVersion  string `json:"api_version"`
	VectorField string `json:"vector_field"`
}

// Enabled reports whether every search setting is present.
func (s SearchConfig) Enabled() bool {
	return s.Endpoint != "" && s.IndexName != "" && s.APIKey != ""
}

// Partial reports whether some, but not all, search settings are present.
func (s SearchConfig) Partial() bool {
	return !s.Enabled() && (s.Endpoint != "" || s.IndexName != "" || s.APIKey != "")
}

// LoadConfig loads configuration from environment variables and validates it
// for the chat server.
func LoadConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Load reads configuration from environment variables without validating it.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:               DefaultPort,
			StaticDir:          "static",
			LogFormat:          "json",
			RateLimitPerMinute: 60,
			AllowedOrigins:     []string{"*"},
		},
		Speech: SpeechConfig{
			TokenMode: TokenModeSTS,
		},
		Audio: AudioConfig{
			Enabled:    true,
			Voice:      DefaultVoice,
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
		},
		LLM: LLMConfig{
			Provider: LLMProviderAzure,
			Azure: AzureOpenAIConfig{
				APIVersion: DefaultAzureOpenAIVersion,
			},
			OpenAI: OpenAIConfig{
				ChatModel:      DefaultOpenAIChatModel,
				EmbeddingModel: DefaultOpenAIEmbeddingModel,
			},
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderAzure,
			Local: LocalConfig{
				ServerURL:  "http://localhost:8080",
				Timeout:    30,
				ServerType: "tei",
			},
			HuggingFace: HuggingFaceConfig{
				ModelID:   "sentence-transformers/all-MiniLM-L6-v2",
				MaxLength: 512,
			},
		},
		Search: SearchConfig{
			APIVersion:  DefaultSearchAPIVersion,
			VectorField: DefaultSearchVectorField,
		},
	}

	// Server
	setString(&config.Server.Port, "PORT")
	setString(&config.Server.StaticDir, "STATIC_DIR")
	setString(&config.Server.LogFormat, "LOG_FORMAT")
	if err := setPositiveInt(&config.Server.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"); err != nil {
		return nil, err
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}

	// Azure Speech
	config.Speech.Key = os.Getenv("SPEECH_KEY")
	config.Speech.Region = os.Getenv("SPEECH_REGION")
	setString(&config.Speech.Endpoint, "SPEECH_ENDPOINT")
	setString(&config.Speech.STSEndpoint, "SPEECH_STS_ENDPOINT")
	if mode := os.Getenv("SPEECH_TOKEN_MODE"); mode != "" {
		switch TokenMode(strings.ToLower(mode)) {
		case TokenModeSTS:
			config.Speech.TokenMode = TokenModeSTS
		case TokenModeKey:
			config.Speech.TokenMode = TokenModeKey
		default:
			return nil, apperr.ConfigurationError("config.Load", "invalid SPEECH_TOKEN_MODE: %s (must be 'sts' or 'key')", mode)
		}
	}
	if config.Speech.Region != "" {
		if config.Speech.Endpoint == "" {
			config.Speech.Endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", config.Speech.Region)
		}
		if config.Speech.STSEndpoint == "" {
			config.Speech.STSEndpoint = fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", config.Speech.Region)
		}
	}

	// Audio
	if v := os.Getenv("SHOULD_STREAM_AUDIO_FROM_CHAT_COMPLETION"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperr.ConfigurationError("config.Load", "invalid SHOULD_STREAM_AUDIO_FROM_CHAT_COMPLETION: %s", v)
		}
		config.Audio.Enabled = enabled
	}
	setString(&config.Audio.Voice, "VOICE_NAME_CHAT_COMPLETION")
	if err := setPositiveInt(&config.Audio.MaxRetries, "TTS_MAX_RETRIES"); err != nil {
		return nil, err
	}
	if v := os.Getenv("TTS_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, apperr.ConfigurationError("config.Load", "invalid TTS_RETRY_DELAY: %s", v)
		}
		config.Audio.RetryDelay = d
	}

	// Chat completion
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		switch LLMProvider(strings.ToLower(provider)) {
		case LLMProviderAzure:
			config.LLM.Provider = LLMProviderAzure
		case LLMProviderOpenAI:
			config.LLM.Provider = LLMProviderOpenAI
		default:
			return nil, apperr.ConfigurationError("config.Load", "invalid LLM provider: %s (must be 'azure' or 'openai')", provider)
		}
	}
	config.LLM.Azure.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	config.LLM.Azure.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	config.LLM.Azure.ChatDeployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME")
	config.LLM.Azure.EmbeddingsDeployment = os.Getenv("AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME")
	setString(&config.LLM.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")
	config.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	setString(&config.LLM.OpenAI.ChatModel, "OPENAI_CHAT_MODEL")
	setString(&config.LLM.OpenAI.EmbeddingModel, "OPENAI_EMBEDDING_MODEL")

	// Load embedding provider type
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		switch strings.ToLower(provider) {
		case "azure":
			config.Embedding.Provider = ProviderAzure
		case "openai":
			config.Embedding.Provider = ProviderOpenAI
		case "local":
			config.Embedding.Provider = ProviderLocal
		case "huggingface":
			config.Embedding.Provider = ProviderHuggingFace
		default:
			return nil, apperr.ConfigurationError("config.Load", "invalid embedding provider: %s (must be 'azure', 'openai', 'local', or 'huggingface')", provider)
		}
	}

	// Load local embedding configuration
	setString(&config.Embedding.Local.ServerURL, "LOCAL_EMBEDDING_URL")
	setString(&config.Embedding.Local.ModelName, "LOCAL_EMBEDDING_MODEL")
	if serverType := os.Getenv("LOCAL_EMBEDDING_SERVER_TYPE"); serverType != "" {
		config.Embedding.Local.ServerType = strings.ToLower(serverType)
	}
	if timeoutStr := os.Getenv("LOCAL_EMBEDDING_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil && timeout > 0 {
			config.Embedding.Local.Timeout = timeout
		}
	}

	// Load HuggingFace configuration
	setString(&config.Embedding.HuggingFace.ModelID, "HUGGINGFACE_MODEL_ID")
	config.Embedding.HuggingFace.Token = os.Getenv("HUGGINGFACEHUB_API_TOKEN")
	if config.Embedding.HuggingFace.Token == "" {
		config.Embedding.HuggingFace.Token = os.Getenv("HF_TOKEN")
	}
	if maxLengthStr := os.Getenv("HUGGINGFACE_MAX_LENGTH"); maxLengthStr != "" {
		if maxLength, err := strconv.Atoi(maxLengthStr); err == nil && maxLength > 0 {
			config.Embedding.HuggingFace.MaxLength = maxLength
		}
	}

	// Load embedding dimensions override
	if dimStr := os.Getenv("EMBEDDING_DIMENSIONS"); dimStr != "" {
		if dimensions, err := strconv.Atoi(dimStr); err == nil && dimensions > 0 {
			config.Embedding.Dimensions = dimensions
		}
	}

	// Azure AI Search
	config.Search.Endpoint = strings.TrimRight(os.Getenv("AZURE_SEARCH_SERVICE_ENDPOINT"), "/")
	config.Search.IndexName = os.Getenv("AZURE_SEARCH_INDEX_NAME")
	config.Search.APIKey = os.Getenv("AZURE_SEARCH_API_KEY")
	setString(&config.Search.APIVersion, "AZURE_SEARCH_API_VERSION")
	setString(&config.Search.VectorField, "AZURE_SEARCH_VECTOR_FIELD")

	return config, nil
}

// Validate checks if the configuration is valid. Speech and chat-completion
// credentials are mandatory; embedding settings are only checked when search
// is enabled because nothing else consumes embeddings.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Speech.Key == "" || c.Speech.Region == "" {
		return apperr.ConfigurationError(op, "SPEECH_KEY and SPEECH_REGION must be set")
	}
	if c.Audio.Enabled && c.Audio.Voice == "" {
		return apperr.ConfigurationError(op, "voice name is required when audio is enabled")
	}
	if c.Audio.MaxRetries <= 0 {
		return apperr.ConfigurationError(op, "TTS max retries must be positive")
	}

	switch c.LLM.Provider {
	case LLMProviderAzure:
		if !c.LLM.Azure.complete() || c.LLM.Azure.ChatDeployment == "" {
			return apperr.ConfigurationError(op, "Azure OpenAI environment variables must be set")
		}
	case LLMProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" || c.LLM.OpenAI.ChatModel == "" {
			return apperr.ConfigurationError(op, "OPENAI_API_KEY and OPENAI_CHAT_MODEL must be set when using the openai provider")
		}
	default:
		return apperr.ConfigurationError(op, "unknown LLM provider: %s", c.LLM.Provider)
	}

	if c.Search.Enabled() {
		if err := c.validateEmbedding(); err != nil {
			return err
		}
	}

	if c.Embedding.Dimensions < 0 {
		return apperr.ConfigurationError(op, "embedding dimensions must be non-negative")
	}

	return nil
}

// ValidateIngestion checks the settings needed to build the search index:
// a complete search configuration and a usable embedding provider.
func (c *Config) ValidateIngestion() error {
	if !c.Search.Enabled() {
		return apperr.ConfigurationError("config.ValidateIngestion", "AZURE_SEARCH_SERVICE_ENDPOINT, AZURE_SEARCH_INDEX_NAME and AZURE_SEARCH_API_KEY must be set")
	}
	return c.validateEmbedding()
}

func (c *Config) validateEmbedding() error {
	const op = "config.Validate"

	switch c.Embedding.Provider {
	case ProviderAzure:
		if !c.LLM.Azure.complete() || c.LLM.Azure.EmbeddingsDeployment == "" {
			return apperr.ConfigurationError(op, "AZURE_OPENAI_EMBEDDINGS_DEPLOYMENT_NAME is required when using the azure embedding provider")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			return apperr.ConfigurationError(op, "OpenAI API key is required when using OpenAI provider")
		}
		if c.LLM.OpenAI.EmbeddingModel == "" {
			return apperr.ConfigurationError(op, "OpenAI embedding model is required")
		}
	case ProviderLocal:
		if c.Embedding.Local.ServerURL == "" {
			return apperr.ConfigurationError(op, "local embedding server URL is required when using local provider")
		}
		if c.Embedding.Local.Timeout <= 0 {
			return apperr.ConfigurationError(op, "local embedding timeout must be positive")
		}
		validServerTypes := []string{"tei", "ollama", "custom"}
		isValidType := false
		for _, validType := range validServerTypes {
			if c.Embedding.Local.ServerType == validType {
				isValidType = true
				break
			}
		}
		if !isValidType {
			return apperr.ConfigurationError(op, "invalid server type: %s (must be one of: %s)",
				c.Embedding.Local.ServerType, strings.Join(validServerTypes, ", "))
		}
	case ProviderHuggingFace:
		if c.Embedding.HuggingFace.ModelID == "" {
			return apperr.ConfigurationError(op, "HuggingFace model ID is required when using HuggingFace provider")
		}
		if c.Embedding.HuggingFace.MaxLength <= 0 {
			return apperr.ConfigurationError(op, "HuggingFace max length must be positive")
		}
	default:
		return apperr.ConfigurationError(op, "unknown embedding provider: %s", c.Embedding.Provider)
	}
	return nil
}

func (a AzureOpenAIConfig) complete() bool {
	return a.APIKey != "" && a.Endpoint != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return apperr.ConfigurationError("config.Load", "invalid %s: %s", key, v)
	}
	*dst = n
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
