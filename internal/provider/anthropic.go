package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = anthropic.ModelClaude3_5HaikuLatest
	defaultMaxTokens      = 64
)

// Anthropic is a Messages API Backend.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// AnthropicOptions configures NewAnthropic. BaseURL and HTTPClient are optional.
type AnthropicOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewAnthropic(opts AnthropicOptions) *Anthropic {
	// Retries are owned by the AI policy.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	model := anthropic.Model(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{client: anthropic.NewClient(reqOpts...), model: model}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	model := a.model
	if req.Model != "" {
		model = anthropic.Model(req.Model)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &TransportError{Provider: a.Name(), Status: apiErr.StatusCode, Err: err}
		}
		return "", &TransportError{Provider: a.Name(), Err: err}
	}
	for _, c := range msg.Content {
		if c.Type == "text" {
			return c.Text, nil
		}
	}
	return "", &ParseError{Provider: a.Name(), Raw: msg.RawJSON(), Reason: "no text content in response"}
}
