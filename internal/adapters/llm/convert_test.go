package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

var (
	at    = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	callA = domain.ToolCall{ID: "a", Name: "verify_user_identity"}
	callB = domain.ToolCall{ID: "b", Name: "verify_documents", Args: map[string]any{"loan_type": "Home"}}
)

func conversation() []domain.Message {
	return []domain.Message{
		domain.SystemMessage("be helpful", at),
		domain.UserMessage("I want a home loan", at),
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{callA, callB}},
		domain.ToolResultMessage(callA, "VERIFIED: Name=Asha", at),
		domain.ToolResultMessage(callB, "PENDING: Missing propertyPapers", at),
		domain.AssistantMessage("Please upload your property papers.", at),
	}
}

func TestPairedHistoryDropsOrphanedResults(t *testing.T) {
	history := []domain.Message{
		domain.SystemMessage("be helpful", at),
		domain.ToolResultMessage(callA, "orphan", at),
		domain.UserMessage("hi", at),
	}

	got := pairedHistory(history)

	require.Len(t, got, 2)
	assert.Equal(t, domain.RoleSystem, got[0].Role)
	assert.Equal(t, domain.RoleUser, got[1].Role)
}

func TestPairedHistoryKeepsAnsweredCalls(t *testing.T) {
	assert.Equal(t, conversation(), pairedHistory(conversation()))
}

func TestGeminiContents(t *testing.T) {
	contents := geminiContents(conversation())

	// System text travels as SystemInstruction, not as content.
	require.Len(t, contents, 4)

	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "I want a home loan", contents[0].Parts[0].Text)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "a", contents[1].Parts[0].FunctionCall.ID)
	assert.Equal(t, "verify_documents", contents[1].Parts[1].FunctionCall.Name)

	// Both results share one content.
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	assert.Equal(t, "b", contents[2].Parts[1].FunctionResponse.ID)
	assert.Equal(t, "PENDING: Missing propertyPapers", contents[2].Parts[1].FunctionResponse.Response["output"])

	assert.Equal(t, genai.RoleModel, contents[3].Role)
}

func TestGeminiDeclarations(t *testing.T) {
	decls := geminiDeclarations([]domain.ToolSchema{
		{Name: "verify_user_identity", Description: "identity"},
		{Name: "calculate_eligibility", Params: []domain.ToolParam{
			{Name: "requested_amount", Type: "integer", Required: true},
			{Name: "note", Type: "string"},
		}},
	})

	require.Len(t, decls, 2)
	assert.Nil(t, decls[0].Parameters)

	params := decls[1].Parameters
	require.NotNil(t, params)
	assert.Equal(t, genai.TypeObject, params.Type)
	assert.Equal(t, genai.TypeInteger, params.Properties["requested_amount"].Type)
	assert.Equal(t, genai.TypeString, params.Properties["note"].Type)
	assert.Equal(t, []string{"requested_amount"}, params.Required)
}

func TestOpenAIMessages(t *testing.T) {
	msgs, err := openAIMessages(conversation())
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 2)
	assert.Equal(t, `{"loan_type":"Home"}`, msgs[2].ToolCalls[1].Function.Arguments)

	assert.Equal(t, "tool", msgs[3].Role)
	assert.Equal(t, "a", msgs[3].ToolCallID)
}

func TestOpenAITools(t *testing.T) {
	assert.Nil(t, openAITools(nil))

	tools := openAITools([]domain.ToolSchema{{Name: "finalize_loan", Params: []domain.ToolParam{
		{Name: "amount", Type: "integer", Required: true},
	}}})
	require.Len(t, tools, 1)
	assert.Equal(t, "finalize_loan", tools[0].Function.Name)
}

func TestMockLLM(t *testing.T) {
	ctx := context.Background()
	mock := NewMockLLM(domain.Message{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{callA}})

	first, err := mock.Invoke(ctx, conversation(), nil)
	require.NoError(t, err)
	assert.True(t, first.HasToolCalls())

	second, err := mock.Invoke(ctx, conversation(), nil)
	require.NoError(t, err)
	assert.Contains(t, second.Text, "I want a home loan")
	assert.Equal(t, 2, mock.Calls())

	_, err = NewFailingLLM(errors.New("down")).Invoke(ctx, nil, nil)
	assert.EqualError(t, err, "down")
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("AVAILABLE LOAN PRODUCTS:\nPRODUCT: Home Saver (Home)\n")

	assert.Contains(t, prompt, "ByteBot")
	assert.Contains(t, prompt, "PRODUCT: Home Saver (Home)")
	assert.NotContains(t, prompt, "{{LOAN_CONTEXT}}")
}
