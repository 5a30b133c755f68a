package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// GeminiConfig selects between the Gemini API (APIKey set) and Vertex AI
// (Project and Location set).
type GeminiConfig struct {
	Name     string
	APIKey   string
	Project  string
	Location string
	Model    string
}

type GeminiBackend struct {
	name      string
	client    *genai.Client
	modelName string
}

// NewGeminiBackend creates a ModelBackend based on Gemini.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.APIKey == "" {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("gemini: an API key or a Vertex project and location are required")
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "gemini"
	}
	return &GeminiBackend{
		name:      name,
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiBackend) Name() string {
	return g.name
}

// Invoke implements domain.ModelBackend using generateContent with function
// declarations.
func (g *GeminiBackend) Invoke(ctx context.Context, history []domain.Message, tools []domain.ToolSchema) (domain.Message, error) {
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if system := systemText(history); system != "" {
		// According to official examples, the role here is usually RoleUser, not "system"
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(tools)}}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, geminiContents(history), cfg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("gemini generate content: %w", err)
	}

	msg := domain.Message{Role: domain.RoleAssistant}
	for _, fc := range res.FunctionCalls() {
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:   fc.ID,
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	msg.Text = res.Text()
	return msg, nil
}

func geminiContents(history []domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range pairedHistory(history) {
		switch m.Role {
		case domain.RoleSystem:
			continue

		case domain.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))

		case domain.RoleAssistant:
			var parts []*genai.Part
			if m.Text != "" {
				parts = append(parts, genai.NewPartFromText(m.Text))
			}
			for _, c := range m.ToolCalls {
				p := genai.NewPartFromFunctionCall(c.Name, c.Args)
				p.FunctionCall.ID = c.ID
				parts = append(parts, p)
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case domain.RoleTool:
			p := genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"output": m.Text})
			p.FunctionResponse.ID = m.ToolCallID

			// Results of one model turn travel together in a single content.
			if n := len(contents); n > 0 && isFunctionResponses(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, p)
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{p}})
		}
	}
	return contents
}

func isFunctionResponses(c *genai.Content) bool {
	if c.Role != genai.RoleUser || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

func geminiDeclarations(tools []domain.ToolSchema) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		if len(t.Params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(t.Params)),
			}
			for _, p := range t.Params {
				schema.Properties[p.Name] = &genai.Schema{
					Type:        geminiType(p.Type),
					Description: p.Description,
				}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		out = append(out, decl)
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
