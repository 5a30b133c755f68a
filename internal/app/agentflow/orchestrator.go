package agentflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/loan-agent/internal/app/pool"
	"github.com/PabloGalante/loan-agent/internal/app/tools"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

var errEmptyReply = errors.New("model returned empty text")

// ProviderFailure describes why a turn could not be completed by a model.
type ProviderFailure struct {
	Backend string
	Phase   int
	Err     error
}

func (f *ProviderFailure) Error() string {
	return fmt.Sprintf("backend %s failed in phase %d: %v", f.Backend, f.Phase, f.Err)
}

func (f *ProviderFailure) Unwrap() []error {
	return []error{domain.ErrProviderFailure, f.Err}
}

// Outcome is the result of one protocol run. Exactly one of Reply or
// Failure is meaningful.
type Outcome struct {
	Reply   string
	Backend string

	// Messages produced during the run, in order: the assistant tool-call
	// message, one tool result per call, and the final assistant reply.
	// On failure it holds whatever was produced before the failure.
	Messages    []domain.Message
	Invocations int
	Failure     *ProviderFailure
}

func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// Orchestrator runs the invoke -> execute tools -> invoke protocol.
type Orchestrator struct {
	pool     *pool.Pool
	registry *tools.Registry
	timeout  time.Duration
	now      func() time.Time
}

// NewOrchestrator wires a pool and a registry. timeout bounds every model
// invocation; zero disables it.
func NewOrchestrator(p *pool.Pool, registry *tools.Registry, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		pool:     p,
		registry: registry,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Run invokes the next backend with history. When the model asks for tools
// they are executed in order and the same backend is invoked exactly once
// more; tools requested by that second response are not executed.
func (o *Orchestrator) Run(ctx context.Context, history []domain.Message, tctx tools.ToolContext) Outcome {
	backend := o.pool.Next()
	log := observability.LoggerFromContext(ctx).With(
		"user_id", tctx.UserID,
		"chat_id", tctx.ChatID,
		"backend", backend.Name(),
	)

	out := Outcome{Backend: backend.Name()}

	first, failure := o.invoke(ctx, backend, 1, history)
	out.Invocations++
	if failure != nil {
		log.Warn("model invocation failed", "phase", 1, "error", failure.Err)
		out.Failure = failure
		return out
	}

	if !first.HasToolCalls() {
		out.Messages = append(out.Messages, first)
		out.Reply = first.Text
		return out
	}

	first = o.withCallIDs(first)
	out.Messages = append(out.Messages, first)

	for _, call := range first.ToolCalls {
		result := o.registry.Execute(ctx, tctx, call)
		out.Messages = append(out.Messages, domain.ToolResultMessage(call, result, o.now()))
	}
	log.Info("tools executed", "count", len(first.ToolCalls))

	conv := make([]domain.Message, 0, len(history)+len(out.Messages))
	conv = append(conv, history...)
	conv = append(conv, out.Messages...)

	second, failure := o.invoke(ctx, backend, 2, conv)
	out.Invocations++
	if failure != nil {
		log.Warn("model invocation failed", "phase", 2, "error", failure.Err)
		out.Failure = failure
		return out
	}

	if second.HasToolCalls() {
		log.Info("dropping tool calls from second response", "count", len(second.ToolCalls))
	}
	if strings.TrimSpace(second.Text) == "" {
		out.Failure = &ProviderFailure{Backend: backend.Name(), Phase: 2, Err: errEmptyReply}
		return out
	}

	final := domain.AssistantMessage(second.Text, o.now())
	out.Messages = append(out.Messages, final)
	out.Reply = final.Text
	return out
}

// invoke calls the backend under the per-invocation timeout. Errors,
// timeouts, panics and empty replies all become a ProviderFailure.
func (o *Orchestrator) invoke(
	ctx context.Context,
	backend domain.ModelBackend,
	phase int,
	history []domain.Message,
) (domain.Message, *ProviderFailure) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type result struct {
		msg domain.Message
		err error
	}
	done := make(chan result, 1)
	schemas := o.registry.Schemas()

	start := time.Now()
	// A backend that ignores ctx keeps this goroutine alive past the
	// deadline until its call returns; done is buffered so it never blocks.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("backend panic: %v", r)}
			}
		}()
		msg, err := backend.Invoke(ctx, history, schemas)
		if ctx.Err() != nil {
			observability.LoggerFromContext(ctx).Warn("backend returned after the turn gave up on it",
				"backend", backend.Name(),
				"phase", phase,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			observability.ModelInvocations.WithLabelValues(backend.Name(), "late").Inc()
		}
		done <- result{msg: msg, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	observability.ModelLatency.WithLabelValues(backend.Name()).Observe(time.Since(start).Seconds())

	if res.err == nil && !res.msg.HasToolCalls() && strings.TrimSpace(res.msg.Text) == "" {
		res.err = errEmptyReply
	}
	if res.err != nil {
		observability.ModelInvocations.WithLabelValues(backend.Name(), "error").Inc()
		return domain.Message{}, &ProviderFailure{Backend: backend.Name(), Phase: phase, Err: res.err}
	}

	observability.ModelInvocations.WithLabelValues(backend.Name(), "ok").Inc()
	res.msg.Role = domain.RoleAssistant
	if res.msg.CreatedAt.IsZero() {
		res.msg.CreatedAt = o.now()
	}
	return res.msg, nil
}

// withCallIDs gives every tool call a correlation id; some providers omit
// them.
func (o *Orchestrator) withCallIDs(m domain.Message) domain.Message {
	calls := make([]domain.ToolCall, len(m.ToolCalls))
	for i, c := range m.ToolCalls {
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		calls[i] = c
	}
	m.ToolCalls = calls
	return m
}
