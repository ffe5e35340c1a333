package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"synexis/internal/retry"
)

// Options tune outbound calls. The zero value means a single attempt with
// no timeout and no rate limit.
type Options struct {
	Timeout   time.Duration // per attempt
	Retries   int           // extra attempts after the first
	RetryBase time.Duration
	RateLimit float64 // requests per second, <= 0 disables
	RateBurst int
}

// OpenAIClient calls an OpenAI-compatible Chat Completions endpoint
// (Together, OpenRouter and friends all speak it).
type OpenAIClient struct {
	name    string
	client  *openai.Client
	limiter *rate.Limiter
	opts    Options
}

// NewOpenAIClient builds a client against baseURL. name is only used to
// label errors.
func NewOpenAIClient(name, baseURL, apiKey string, opts Options) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key required", name)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url required", name)
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.RateBurst < 1 {
		opts.RateBurst = 1
	}
	// Retries are driven by retry.Do so the SDK's own loop stays off.
	cli := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
		option.WithMaxRetries(0),
	)
	return &OpenAIClient{
		name:    name,
		client:  &cli,
		limiter: rate.NewLimiter(limit, opts.RateBurst),
		opts:    opts,
	}, nil
}

// Complete sends req and returns choices[0].message.content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	var content string
	err := retry.Do(ctx, c.opts.Retries+1, c.opts.RetryBase, func(ctx context.Context) error {
		out, err := c.complete(ctx, req)
		if err != nil {
			if !retryable(err) {
				return retry.Stop(err)
			}
			return err
		}
		content = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	return content, nil
}

func (c *OpenAIClient) complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: buildMessages(req.Prompt),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}

// retryable reports whether another attempt could plausibly succeed:
// transport errors, timeouts, 429 and 5xx.
func retryable(err error) bool {
	if errors.Is(err, ErrEmptyCompletion) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
