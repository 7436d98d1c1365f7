package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/shared/format"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var (
	// ErrCompletionFailed wraps every transport, authentication or protocol failure of a completion request.
	ErrCompletionFailed = errors.New("completion request failed")
	ErrNoChoices        = fmt.Errorf("%w: endpoint returned zero choices", ErrCompletionFailed)
)

type Client struct {
	client       *openai.Client
	deployment   string
	maxTokens    int
	systemPrompt string
}

type ClientOption func(*openai.ClientConfig)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *openai.ClientConfig) {
		c.HTTPClient = httpClient
	}
}

func NewClient(config *hctx.ClientConfig, opts ...ClientOption) *Client {
	var clientConfig openai.ClientConfig
	switch config.Provider {
	case "openai":
		clientConfig = openai.DefaultConfig(config.ApiKey)
		if config.Endpoint != "" {
			clientConfig.BaseURL = strings.TrimRight(config.Endpoint, "/")
		}
	default:
		clientConfig = openai.DefaultAzureConfig(config.ApiKey, config.Endpoint)
		clientConfig.APIVersion = config.ApiVersion
		// The deployment name is used verbatim, go-openai strips dots from model names by default
		clientConfig.AzureModelMapperFunc = func(model string) string {
			return model
		}
	}
	for _, opt := range opts {
		opt(&clientConfig)
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = hctx.DefaultMaxTokens
	}
	return &Client{
		client:       openai.NewClientWithConfig(clientConfig),
		deployment:   config.Deployment,
		maxTokens:    maxTokens,
		systemPrompt: hctx.DefaultSystemPrompt,
	}
}

// Complete sends prompt as a single-turn chat and returns the normalized text of the first choice.
// An empty completion is returned as "" with a nil error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	hctx.GetLogger().Infof("Running completion query for %#v against deployment %#v", prompt, c.deployment)
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status=%d: %w", ErrCompletionFailed, apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w (id=%#v, model=%#v)", ErrNoChoices, resp.ID, resp.Model)
	}
	hctx.GetLogger().WithFields(logrus.Fields{
		"duration":          time.Since(start).String(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Infof("Received completion for %#v", prompt)
	return format.Normalize(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
