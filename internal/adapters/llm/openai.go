package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// OpenAIConfig points the backend at OpenAI or at any compatible endpoint
// through BaseURL.
type OpenAIConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIBackend struct {
	name   string
	client *openai.Client
	model  string
}

func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &OpenAIBackend{
		name:   name,
		client: openai.NewClientWithConfig(occ),
		model:  model,
	}
}

func (o *OpenAIBackend) Name() string {
	return o.name
}

func (o *OpenAIBackend) Invoke(ctx context.Context, history []domain.Message, tools []domain.ToolSchema) (domain.Message, error) {
	messages, err := openAIMessages(history)
	if err != nil {
		return domain.Message{}, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		Tools:    openAITools(tools),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Message{}, errors.New("no response from OpenAI")
	}

	choice := resp.Choices[0].Message
	msg := domain.Message{Role: domain.RoleAssistant, Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return domain.Message{}, fmt.Errorf("decoding arguments of %s: %w", tc.Function.Name, err)
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return msg, nil
}

func openAIMessages(history []domain.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range pairedHistory(history) {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Text})

		case domain.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})

		case domain.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, c := range m.ToolCalls {
				args, err := json.Marshal(c.Args)
				if err != nil {
					return nil, fmt.Errorf("encoding arguments of %s: %w", c.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   c.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      c.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, msg)

		case domain.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Text,
				Name:       m.ToolName,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return out, nil
}

func openAITools(tools []domain.ToolSchema) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: make(map[string]jsonschema.Definition, len(t.Params)),
		}
		for _, p := range t.Params {
			params.Properties[p.Name] = jsonschema.Definition{
				Type:        openAIType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func openAIType(t string) jsonschema.DataType {
	switch t {
	case "integer":
		return jsonschema.Integer
	case "number":
		return jsonschema.Number
	case "boolean":
		return jsonschema.Boolean
	default:
		return jsonschema.String
	}
}
