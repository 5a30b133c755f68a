package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/loan-agent/internal/app/lending"
	"github.com/PabloGalante/loan-agent/internal/domain"
)

// IdentityTool marks the chat as applied and reports the user's credit
// profile.
type IdentityTool struct {
	store domain.LoanStore
}

func NewIdentityTool(store domain.LoanStore) *IdentityTool {
	return &IdentityTool{store: store}
}

func (t *IdentityTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "verify_user_identity",
		Description: "Verify the signed-in user's identity and fetch their credit score and pre-approved limit. Takes no arguments.",
	}
}

func (t *IdentityTool) Execute(ctx context.Context, tctx ToolContext, _ map[string]any) (string, error) {
	if t.store == nil {
		return "", domain.ErrStoreUnavailable
	}

	err := t.store.UpdateChatStatus(ctx, tctx.UserID, tctx.ChatID, domain.ChatStatus{Status: domain.StatusApplied})
	if err != nil {
		return "", fmt.Errorf("verify_user_identity: %w", err)
	}

	p, err := t.store.GetProfile(ctx, tctx.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return "USER_NOT_FOUND: Ask user to sign in.", nil
	}
	if err != nil {
		return "", fmt.Errorf("verify_user_identity: %w", err)
	}

	if p.PANCard == "" || p.PANCard == "NOT_LINKED" {
		return "STOP: User's PAN is missing. Tell them: 'Please complete your profile first.'", nil
	}

	name := p.Name
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("USER: %s\nCIBIL: %d\nLIMIT: ₹%d\nPAN: %s (Verified)",
		name, p.CreditScore, p.PreApprovedLimit, p.PANCard), nil
}

// DocumentsTool checks uploaded documents against the loan type and marks
// the chat verified when nothing is missing.
type DocumentsTool struct {
	store domain.LoanStore
}

func NewDocumentsTool(store domain.LoanStore) *DocumentsTool {
	return &DocumentsTool{store: store}
}

func (t *DocumentsTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "verify_documents",
		Description: "Check that the user uploaded every document required for the loan type.",
		Params: []domain.ToolParam{
			{Name: "loan_type", Type: "string", Description: "Loan product type, e.g. Personal, Home Loan, Auto Loan, Education Loan.", Required: true},
		},
	}
}

func (t *DocumentsTool) Execute(ctx context.Context, tctx ToolContext, args map[string]any) (string, error) {
	loanType, err := stringArg(args, "loan_type", "Personal")
	if err != nil {
		return "", err
	}
	if t.store == nil {
		return "", domain.ErrStoreUnavailable
	}

	p, err := t.store.GetProfile(ctx, tctx.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return "User not found.", nil
	}
	if err != nil {
		return "", fmt.Errorf("verify_documents: %w", err)
	}

	if missing := lending.MissingDocuments(loanType, p.Documents); len(missing) > 0 {
		return fmt.Sprintf("PENDING: Upload %s in Profile.", strings.Join(missing, ", ")), nil
	}

	err = t.store.UpdateChatStatus(ctx, tctx.UserID, tctx.ChatID, domain.ChatStatus{Status: domain.StatusVerified})
	if err != nil {
		return "", fmt.Errorf("verify_documents: %w", err)
	}
	return "ALL_DOCS_VERIFIED: Proceed.", nil
}

// FinalizeTool approves the loan and writes the sanction to the store.
type FinalizeTool struct {
	approver *lending.Approver
}

func NewFinalizeTool(store domain.LoanStore) *FinalizeTool {
	return &FinalizeTool{approver: lending.NewApprover(store)}
}

// NewFinalizeToolWithApprover lets callers share an Approver (and its clock).
func NewFinalizeToolWithApprover(a *lending.Approver) *FinalizeTool {
	return &FinalizeTool{approver: a}
}

func (t *FinalizeTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "finalize_loan",
		Description: "Approve the loan and generate the sanction letter. Must be called to approve; never claim approval without it.",
		Params: []domain.ToolParam{
			{Name: "amount", Type: "integer", Description: "Loan amount in rupees.", Required: true},
			{Name: "tenure_years", Type: "integer", Description: "Repayment tenure in years. Defaults to 5."},
		},
	}
}

func (t *FinalizeTool) Execute(ctx context.Context, tctx ToolContext, args map[string]any) (string, error) {
	amount, err := intArg(args, "amount", lending.DefaultAmount)
	if err != nil {
		return "", err
	}
	years, err := intArg(args, "tenure_years", lending.DefaultTenureY)
	if err != nil {
		return "", err
	}

	s, err := t.approver.Approve(ctx, tctx.UserID, tctx.ChatID, amount, int(years))
	if err != nil {
		return "", fmt.Errorf("finalize_loan: %w", err)
	}
	return s.String(), nil
}

// EligibilityTool is a pure calculation over its arguments.
type EligibilityTool struct{}

func (EligibilityTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "calculate_eligibility",
		Description: "Decide whether a requested amount can be approved given salary and pre-approved limit.",
		Params: []domain.ToolParam{
			{Name: "requested_amount", Type: "integer", Description: "Requested loan amount.", Required: true},
			{Name: "salary", Type: "integer", Description: "Monthly salary.", Required: true},
			{Name: "pre_approved_limit", Type: "integer", Description: "User's pre-approved limit.", Required: true},
		},
	}
}

func (EligibilityTool) Execute(_ context.Context, _ ToolContext, args map[string]any) (string, error) {
	requested, err := requiredIntArg(args, "requested_amount")
	if err != nil {
		return "", err
	}
	salary, err := requiredIntArg(args, "salary")
	if err != nil {
		return "", err
	}
	limit, err := requiredIntArg(args, "pre_approved_limit")
	if err != nil {
		return "", err
	}
	return lending.Eligibility(requested, salary, limit), nil
}

// ForeclosureTool estimates savings of closing a loan early.
type ForeclosureTool struct{}

func (ForeclosureTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "calculate_foreclosure_impact",
		Description: "Estimate the interest saved by foreclosing a loan after some months.",
		Params: []domain.ToolParam{
			{Name: "loan_amount", Type: "integer", Description: "Outstanding loan amount.", Required: true},
			{Name: "months_paid", Type: "integer", Description: "Installments already paid.", Required: true},
		},
	}
}

func (ForeclosureTool) Execute(_ context.Context, _ ToolContext, args map[string]any) (string, error) {
	amount, err := requiredIntArg(args, "loan_amount")
	if err != nil {
		return "", err
	}
	months, err := requiredIntArg(args, "months_paid")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ANALYSIS: Foreclosing saves ₹%d.", lending.ForeclosureSavings(amount, int(months))), nil
}
