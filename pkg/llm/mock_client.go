package llm

import (
	"context"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"
)

// MockClient counts calls so tests can assert on retry budgets and on
// the no-network-before-validation guarantee.
type MockClient struct {
	CreateChatCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	calls atomic.Int64
}

func (m *MockClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls.Add(1)
	if m.CreateChatCompletionFunc != nil {
		return m.CreateChatCompletionFunc(ctx, req)
	}
	return openai.ChatCompletionResponse{}, nil
}

func (m *MockClient) Calls() int64 {
	return m.calls.Load()
}

// ToolCallResponse wraps raw tool-call arguments in the response shape
// GenerateTypedJSON expects.
func ToolCallResponse(arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ToolCall{
						{
							Type: openai.ToolTypeFunction,
							Function: openai.FunctionCall{
								Name:      "json",
								Arguments: arguments,
							},
						},
					},
				},
			},
		},
	}
}
