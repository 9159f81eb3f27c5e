package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/config"
)

// Message is a single chat message sent to the completion provider.
type Message struct {
	Role    string
	Content string
}

// Params are the sampling parameters of one completion request.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Client is a chat-completion client for Azure OpenAI or OpenAI.
// It is safe for concurrent use.
type Client struct {
	client *openai.Client
	model  string
}

// NewAzureOpenAIClient builds a go-openai client for an Azure OpenAI resource.
// Deployment names are passed through unchanged as the model.
func NewAzureOpenAIClient(cfg config.AzureOpenAIConfig) *openai.Client {
	c := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	c.APIVersion = cfg.APIVersion
	c.AzureModelMapperFunc = func(model string) string { return model }
	return openai.NewClientWithConfig(c)
}

// New creates a completion client for the configured provider.
func New(cfg config.LLMConfig) *Client {
	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		return NewWithClient(openai.NewClient(cfg.OpenAI.APIKey), cfg.OpenAI.ChatModel)
	default:
		return NewWithClient(NewAzureOpenAIClient(cfg.Azure), cfg.Azure.ChatDeployment)
	}
}

// NewWithClient wraps an existing go-openai client.
func NewWithClient(client *openai.Client, model string) *Client {
	return &Client{client: client, model: model}
}

// Complete sends messages to the provider and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	const op = "llm.Complete"

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperr.ProviderError(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.ProviderError(op, errors.New("completion returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
