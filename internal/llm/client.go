package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Typed failure taxonomy surfaced to the admin test endpoint and the
// job runner. The narrative path makes exactly one request per report:
// no retries, no backoff, no streaming.
var (
	ErrUnauthorized = errors.New("llm: unauthorized")
	ErrRateLimited  = errors.New("llm: rate limited")
	ErrServer       = errors.New("llm: server error")
	ErrMalformed    = errors.New("llm: malformed response")
)

const systemPrompt = "You are a treasury operations consultant writing the narrative section of an ROI " +
	"business case. Be specific, conservative and concise. Write Markdown with short sections. " +
	"Do not invent numbers: use only the figures supplied in the prompt."

// Narrator produces the optional report narrative.
type Narrator interface {
	GenerateNarrative(ctx context.Context, prompt string) (string, error)
	TestConnection(ctx context.Context) error
}

// Messager is the slice of the Anthropic SDK the client uses, split out
// so tests can fake it.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Client struct {
	messages Messager
	model    string
	timeout  time.Duration
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		messages: &c.Messages,
		model:    model,
		timeout:  timeout,
	}
}

// NewClientWithMessager wires a custom transport, used by tests.
func NewClientWithMessager(m Messager, model string, timeout time.Duration) *Client {
	return &Client{messages: m, model: model, timeout: timeout}
}

// GenerateNarrative issues a single completion request with a fixed
// timeout and returns the Markdown narrative text.
func (c *Client) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return out, nil
}

// TestConnection makes a minimal request so the admin settings page can
// verify the API key before enabling narratives.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 16,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

// classify maps a transport error onto the typed taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	// API failures carry a typed error with the status code. The string
	// scraping below is only for transport errors that never got one.
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 401 || apierr.StatusCode == 403:
			return fmt.Errorf("%w: status %d", ErrUnauthorized, apierr.StatusCode)
		case apierr.StatusCode == 429:
			return fmt.Errorf("%w: status %d", ErrRateLimited, apierr.StatusCode)
		default:
			return fmt.Errorf("%w: status %d", ErrServer, apierr.StatusCode)
		}
	}

	msg := strings.ToLower(err.Error())
	status := ""
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		status = m[1]
	}

	switch {
	case status == "401" || status == "403" ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "invalid x-api-key"):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case status == "429" || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.HasPrefix(status, "5") || strings.Contains(msg, "overloaded"):
		return fmt.Errorf("%w: %v", ErrServer, err)
	default:
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
}
