// Package qwen talks to Qwen models through DashScope's OpenAI-compatible
// chat completion endpoint.
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"

type Client struct {
	apiKey  string
	baseURL string
	model   string

	httpClient *http.Client
}

type Option func(*Client)

func WithAPIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL overrides the completion endpoint, for tests and proxies.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		model:      "qwen-plus",
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.apiKey == "" {
		client.apiKey, _ = os.LookupEnv("DASHSCOPE_API_KEY")
	}
	return client
}

type PromptOptions struct {
	Instructions string
	History      []Turn
}

type PromptOption func(*PromptOptions)

func WithInstructions(instructions string) PromptOption {
	return func(o *PromptOptions) { o.Instructions = instructions }
}

func WithHistory(turns []Turn) PromptOption {
	return func(o *PromptOptions) {
		copier.Copy(&o.History, turns)
	}
}

// Prompt sends one user prompt and returns the assistant's text response.
func (c *Client) Prompt(ctx context.Context, prompt string, opts ...PromptOption) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()

	options := PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := toMessages(options.Instructions, options.History)
	messages = append(messages, message{
		Role:    messageRoleUser,
		Content: prompt,
	})

	responseBody, err := c.complete(ctx, requestBody{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return "", err
	}
	if len(responseBody.Choices) == 0 {
		err := fmt.Errorf("completion response carried no choices")
		span.RecordError(err)
		return "", err
	}
	return responseBody.Choices[0].Message.Content, nil
}

func (c *Client) complete(ctx context.Context, reqBody requestBody) (*responseBody, error) {
	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			logger.Warn("completion request rejected", "status", resp.Status, "body", string(errorBody))
		}
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	var parsed responseBody
	if err := json.Unmarshal(respBodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	return &parsed, nil
}

type requestBody struct {
	Model          string              `json:"model"`
	Messages       []message           `json:"messages"`
	ResponseFormat *ChatResponseFormat `json:"response_format,omitempty"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
