package apps

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3"
	openaiopt "github.com/openai/openai-go/v3/option"

	"github.com/ajirodesu/chaldea/pkg/command"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	aiReplyMaxTokens      = 1024
)

type gptCommand struct {
	client openai.Client
	key    string
	model  string
}

func newGPTCommand(key, model string) *gptCommand {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &gptCommand{
		client: openai.NewClient(openaiopt.WithAPIKey(key)),
		key:    key,
		model:  model,
	}
}

func (c *gptCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "gpt",
		Aliases:     []string{"ai"},
		Description: "Ask ChatGPT",
		Category:    "ai",
		Cooldown:    10 * time.Second,
		Guide:       []string{"<question>"},
	}
}

func (c *gptCommand) OnStart(ctx context.Context, req *command.Request) error {
	if c.key == "" {
		_, err := req.Response.Reply(ctx, "ChatGPT is not configured on this bot.", nil)
		return err
	}
	prompt := strings.Join(req.Args, " ")
	if prompt == "" {
		return req.Usages(ctx)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			_, replyErr := req.Response.Reply(ctx, "ChatGPT request failed: "+strings.TrimSpace(apiErr.Message), nil)
			return replyErr
		}
		return err
	}
	if len(resp.Choices) == 0 {
		_, err := req.Response.Reply(ctx, "ChatGPT returned nothing.", nil)
		return err
	}
	_, err = req.Response.Reply(ctx, resp.Choices[0].Message.Content, nil)
	return err
}

type claudeCommand struct {
	client anthropic.Client
	key    string
	model  string
}

func newClaudeCommand(key, model string) *claudeCommand {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &claudeCommand{
		client: anthropic.NewClient(anthropicopt.WithAPIKey(key)),
		key:    key,
		model:  model,
	}
}

func (c *claudeCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "claude",
		Description: "Ask Claude",
		Category:    "ai",
		Cooldown:    10 * time.Second,
		Guide:       []string{"<question>"},
	}
}

func (c *claudeCommand) OnStart(ctx context.Context, req *command.Request) error {
	if c.key == "" {
		_, err := req.Response.Reply(ctx, "Claude is not configured on this bot.", nil)
		return err
	}
	prompt := strings.Join(req.Args, " ")
	if prompt == "" {
		return req.Usages(ctx)
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: aiReplyMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	if b.Len() == 0 {
		_, err := req.Response.Reply(ctx, "Claude returned nothing.", nil)
		return err
	}
	_, err = req.Response.Reply(ctx, b.String(), nil)
	return err
}
