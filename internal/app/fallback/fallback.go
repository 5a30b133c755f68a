// Package fallback produces degraded replies when no model backend is
// reachable. Each rule pairs a keyword predicate with a canned reply and the
// store side effect the matching tool would have performed.
package fallback

import (
	"context"
	"strings"

	"github.com/PabloGalante/loan-agent/internal/app/lending"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

// Target identifies whose records an effect writes to.
type Target struct {
	UserID domain.UserID
	ChatID domain.ChatID
}

// Effect is the side effect of a rule. It may be nil.
type Effect func(ctx context.Context, t Target) error

// Rule is evaluated in order; the first rule whose keywords match wins.
type Rule struct {
	Name     string
	Keywords []string
	Reply    string
	Effect   Effect
}

// Matches reports whether the lowercased text contains any keyword.
func (r Rule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Reply is what the responder produced.
type Reply struct {
	Rule string
	Text string
}

const BusyReply = "I am currently experiencing high traffic, but I can see your profile is active. How can I help with your loan application?"

type Responder struct {
	rules []Rule
}

// NewResponder builds a responder from an explicit rule list.
func NewResponder(rules ...Rule) *Responder {
	return &Responder{rules: rules}
}

// NewLoanResponder returns the eligibility / documents / approval rules.
func NewLoanResponder(store domain.LoanStore, approver *lending.Approver) *Responder {
	setStatus := func(status domain.LoanStatus) Effect {
		return func(ctx context.Context, t Target) error {
			if store == nil {
				return domain.ErrStoreUnavailable
			}
			return store.UpdateChatStatus(ctx, t.UserID, t.ChatID, domain.ChatStatus{Status: status})
		}
	}

	return NewResponder(
		Rule{
			Name:     "eligibility",
			Keywords: []string{"check", "eligible", "score"},
			Reply:    "I've checked your profile. Your CIBIL Score is 780 and you are eligible for up to ₹5,00,000. Shall we proceed?",
			Effect:   setStatus(domain.StatusApplied),
		},
		Rule{
			Name:     "documents",
			Keywords: []string{"document", "upload", "verify"},
			Reply:    "I have verified your Salary Slips and PAN Card. Everything looks perfect. Would you like me to approve the loan?",
			Effect:   setStatus(domain.StatusVerified),
		},
		Rule{
			Name:     "approval",
			Keywords: []string{"yes", "approve", "sanction"},
			Reply:    "SUCCESS: Sanction Letter Generated. Your loan of ₹5,00,000 is approved! You can download the letter below.",
			Effect: func(ctx context.Context, t Target) error {
				_, err := approver.Approve(ctx, t.UserID, t.ChatID, lending.DefaultAmount, lending.DefaultTenureY)
				return err
			},
		},
	)
}

// Respond picks the first matching rule, runs its effect and returns its
// reply. Effect failures are logged; the reply is returned regardless.
func (r *Responder) Respond(ctx context.Context, t Target, userText string) Reply {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", t.UserID,
		"chat_id", t.ChatID,
	)
	lower := strings.ToLower(userText)

	for _, rule := range r.rules {
		if !rule.Matches(lower) {
			continue
		}
		if rule.Effect != nil {
			if err := rule.Effect(ctx, t); err != nil {
				log.Error("fallback effect failed", "rule", rule.Name, "error", err)
			}
		}
		observability.FallbackReplies.WithLabelValues(rule.Name).Inc()
		return Reply{Rule: rule.Name, Text: rule.Reply}
	}

	observability.FallbackReplies.WithLabelValues("busy").Inc()
	return Reply{Rule: "busy", Text: BusyReply}
}
