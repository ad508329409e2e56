package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Client is the subset of the OpenAI-compatible API the tracker needs.
// DeepSeek exposes the same chat-completion surface, so the real client
// works against it unchanged.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func NewClient(apiKey, baseURL, timeout string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	dur, err := time.ParseDuration(timeout)
	if err != nil {
		dur = 60 * time.Second
	}

	config.HTTPClient = &http.Client{
		Timeout: dur,
	}
	return openai.NewClientWithConfig(config)
}
