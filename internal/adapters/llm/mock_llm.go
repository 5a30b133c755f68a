package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// MockLLM is a ModelBackend for local development and tests. It replays
// Script in order, then echoes the last user message. When Err is set every
// call fails with it.
type MockLLM struct {
	mu     sync.Mutex
	name   string
	script []domain.Message
	err    error
	calls  int
}

func NewMockLLM(script ...domain.Message) *MockLLM {
	return &MockLLM{name: "mock", script: script}
}

// NewFailingLLM returns a mock whose every invocation fails with err.
func NewFailingLLM(err error) *MockLLM {
	return &MockLLM{name: "mock-failing", err: err}
}

func (m *MockLLM) Name() string {
	return m.name
}

func (m *MockLLM) Invoke(ctx context.Context, history []domain.Message, _ []domain.ToolSchema) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return domain.Message{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}

	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			last = history[i].Text
			break
		}
	}
	return domain.Message{
		Role: domain.RoleAssistant,
		Text: fmt.Sprintf("I hear you. You said %q. Which loan product are you interested in?", last),
	}, nil
}

// Calls returns how many times Invoke ran.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}
