package conversation

import (
	"context"
	"time"

	"github.com/PabloGalante/loan-agent/internal/app/agentflow"
	"github.com/PabloGalante/loan-agent/internal/app/fallback"
	"github.com/PabloGalante/loan-agent/internal/app/tools"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

// Service is the entry point of a conversation turn. It never fails: model
// outages are answered by the fallback responder.
type Service struct {
	sessions     domain.SessionStore
	orchestrator *agentflow.Orchestrator
	fallback     *fallback.Responder
	systemPrompt func() string
	now          func() time.Time
}

// NewService wires the turn pipeline. systemPrompt is called when a new
// session is created.
func NewService(
	sessions domain.SessionStore,
	orchestrator *agentflow.Orchestrator,
	responder *fallback.Responder,
	systemPrompt func() string,
) *Service {
	return &Service{
		sessions:     sessions,
		orchestrator: orchestrator,
		fallback:     responder,
		systemPrompt: systemPrompt,
		now:          time.Now,
	}
}

type TurnInput struct {
	UserID domain.UserID
	ChatID domain.ChatID
	Text   string
}

type TurnOutput struct {
	Reply    string
	Backend  string
	Degraded bool
	// FallbackRule names the rule that answered a degraded turn.
	FallbackRule string
}

// ProcessTurn appends the user's message, runs the model protocol and
// records the reply. Session locks are only held inside the store calls, so
// model and tool I/O never runs under them.
func (s *Service) ProcessTurn(ctx context.Context, in TurnInput) TurnOutput {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"chat_id", in.ChatID,
	)
	start := s.now()

	system := domain.SystemMessage(s.systemPrompt(), start)
	history, err := s.sessions.GetOrCreate(ctx, in.UserID, system)
	if err != nil {
		// Keep answering with a throwaway history.
		log.Error("failed to load session", "error", err)
		history = []domain.Message{system}
	}

	userMsg := domain.UserMessage(in.Text, start)
	if err := s.sessions.Append(ctx, in.UserID, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
	}
	history = append(history, userMsg)

	tctx := tools.ToolContext{
		UserID:    in.UserID,
		ChatID:    in.ChatID,
		RequestID: observability.RequestIDFromContext(ctx),
	}
	outcome := s.orchestrator.Run(ctx, history, tctx)

	out := TurnOutput{Backend: outcome.Backend}
	produced := outcome.Messages

	if outcome.Failed() {
		log.Warn("switching to fallback", "backend", outcome.Backend, "error", outcome.Failure)
		reply := s.fallback.Respond(ctx, fallback.Target{UserID: in.UserID, ChatID: in.ChatID}, in.Text)

		out.Reply = reply.Text
		out.Degraded = true
		out.FallbackRule = reply.Rule
		produced = append(produced, domain.AssistantMessage(reply.Text, s.now()))
		observability.Turns.WithLabelValues("fallback").Inc()
	} else {
		out.Reply = outcome.Reply
		observability.Turns.WithLabelValues("model").Inc()
	}

	if err := s.sessions.Append(ctx, in.UserID, produced...); err != nil {
		log.Error("failed to append turn messages", "error", err)
	}

	log.Info("turn completed",
		"backend", out.Backend,
		"degraded", out.Degraded,
		"invocations", outcome.Invocations,
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)
	return out
}
