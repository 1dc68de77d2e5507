package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-haiku-20240307"
	maxTokens      = 256
)

// Unknown is returned by TranslateToCommand when the text maps to no command.
const Unknown = "UNKNOWN"

const systemPrompt = `You translate messages from the staff of a small medical facility into exactly one shop command.
Available commands:
/lowstock                                      list items at or below 20% of their initial stock
/addstock <item> <initial> <extra> <price>     register stock
/restock <item> <qty>                          add units to an existing item
/sale <item> <qty> <patient name>              sell to a patient
/invoice <patient name>                        show a patient's invoice
/help                                          list commands
Reply with the command line only, no explanation. Wrap item names that contain spaces in double quotes.
Keep item and patient names exactly as written.
If the message matches none of the commands reply with UNKNOWN.`

// Client defines the interface for AI text processing.
type Client interface {
	TranslateToCommand(ctx context.Context, input string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// Option configures the client.
type Option func(*resty.Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(url string) Option {
	return func(c *resty.Client) { c.SetBaseURL(strings.TrimSuffix(url, "/")) }
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string, opts ...Option) Client {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)
	for _, opt := range opts {
		opt(client)
	}

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// TranslateToCommand asks the model to turn free text into a slash command.
// It returns Unknown when the model finds no matching command.
func (c *anthropicClient) TranslateToCommand(ctx context.Context, input string) (string, error) {
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []Message{{Role: "user", Content: input}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	text := strings.TrimSpace(respBody.Content[0].Text)
	text = strings.Trim(text, "`")
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}
	if !strings.HasPrefix(text, "/") {
		return Unknown, nil
	}
	return text, nil
}
