package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	UserID    domain.UserID
	ChatID    domain.ChatID
	RequestID string
}

// Tool is anything the model may request. Pure tools ignore ToolContext;
// side-effecting tools use it to address the store.
type Tool interface {
	Schema() domain.ToolSchema
	Execute(ctx context.Context, tctx ToolContext, args map[string]any) (string, error)
}

// Registry maps tool names to tools, keeping registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	if t == nil {
		return
	}
	name := t.Schema().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Schemas returns the tool declarations in registration order.
func (r *Registry) Schemas() []domain.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Schema())
	}
	return out
}

// Execute runs the requested tool and always returns text for the model.
// Failures are reported as a diagnostic payload instead of an error so the
// conversation can continue.
func (r *Registry) Execute(ctx context.Context, tctx ToolContext, call domain.ToolCall) string {
	log := observability.LoggerFromContext(ctx).With(
		"tool", call.Name,
		"tool_call_id", call.ID,
		"user_id", tctx.UserID,
	)

	t, ok := r.Get(call.Name)
	if !ok {
		log.Warn("model requested unknown tool")
		observability.ToolCalls.WithLabelValues(call.Name, "not_found").Inc()
		return diagnostic(fmt.Errorf("%w: %s", domain.ErrToolNotFound, call.Name))
	}

	start := time.Now()
	out, err := safeExecute(ctx, t, tctx, call.Args)
	if err != nil {
		log.Error("tool failed", "error", err)
		observability.ToolCalls.WithLabelValues(call.Name, resultLabel(err)).Inc()
		return diagnostic(err)
	}

	log.Info("tool executed", "elapsed_ms", time.Since(start).Milliseconds())
	observability.ToolCalls.WithLabelValues(call.Name, "ok").Inc()
	return out
}

// safeExecute turns a panicking tool into an error so the turn still gets
// a tool result.
func safeExecute(ctx context.Context, t Tool, tctx ToolContext, args map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("tool panic: %v", r)
		}
	}()
	return t.Execute(ctx, tctx, args)
}

func diagnostic(err error) string {
	switch {
	case errors.Is(err, domain.ErrToolNotFound):
		return "Error: Tool not found."
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "Database Error."
	default:
		return "Error: " + err.Error()
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToolArguments):
		return "invalid_args"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

// NewLoanRegistry registers the loan workflow tools.
func NewLoanRegistry(store domain.LoanStore) *Registry {
	return NewRegistry(
		NewIdentityTool(store),
		NewDocumentsTool(store),
		NewFinalizeTool(store),
		EligibilityTool{},
		ForeclosureTool{},
	)
}
