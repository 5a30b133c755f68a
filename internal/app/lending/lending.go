// Package lending holds the loan rules shared by the model tools and the
// fallback responder.
package lending

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

const (
	AnnualRate     = 0.10
	SchemeName     = "Byte Flexi Loan"
	DueDateLayout  = "02 Jan 2006"
	DueInDays      = 30
	DefaultAmount  = int64(500000)
	DefaultTenureY = 5
)

// MonthlyInstallment returns the amortized EMI at AnnualRate, truncated to
// a whole amount. A non-positive tenure yields 0. Terms whose installment
// does not fit an int64 are rejected with ErrInvalidToolArguments.
func MonthlyInstallment(amount int64, tenureYears int) (int64, error) {
	if tenureYears <= 0 {
		return 0, nil
	}
	if tenureYears > math.MaxInt/12 {
		return 0, fmt.Errorf("%w: tenure of %d years is out of range", domain.ErrInvalidToolArguments, tenureYears)
	}
	n := tenureYears * 12
	r := AnnualRate / 12
	growth := math.Pow(1+r, float64(n))
	emi := float64(amount) * r * growth / (growth - 1)
	if math.IsNaN(emi) || math.IsInf(emi, 0) || math.Abs(emi) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: installment overflows for amount %d over %d years",
			domain.ErrInvalidToolArguments, amount, tenureYears)
	}
	return int64(emi), nil
}

// RequiredDocuments lists the document names needed for a loan type: a
// salary slip always, plus one type-specific document.
func RequiredDocuments(loanType string) []string {
	docs := []string{"Salary Slip"}
	switch {
	case strings.Contains(loanType, "Home"):
		docs = append(docs, "Property Papers")
	case strings.Contains(loanType, "Car"), strings.Contains(loanType, "Auto"):
		docs = append(docs, "Vehicle RC")
	case strings.Contains(loanType, "Education"):
		docs = append(docs, "Admission Letter")
	}
	return docs
}

// MissingDocuments returns the required documents not present in docs, in
// RequiredDocuments order.
func MissingDocuments(loanType string, docs domain.Documents) []string {
	present := map[string]bool{
		"Salary Slip":      docs.SalarySlip,
		"Property Papers":  docs.PropertyPapers,
		"Vehicle RC":       docs.VehicleRC,
		"Admission Letter": docs.AdmissionLetter,
	}

	var missing []string
	for _, name := range RequiredDocuments(loanType) {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Eligibility decides a requested amount against the pre-approved limit.
func Eligibility(requested, salary, limit int64) string {
	switch {
	case requested <= limit:
		return "APPROVED_INSTANTLY"
	case requested <= 2*limit:
		if float64(requested)/60 <= 0.5*float64(salary) {
			return "APPROVED_CONDITIONAL"
		}
		return "REJECTED: EMI too high."
	default:
		return "REJECTED: Amount too high."
	}
}

// ForeclosureSavings estimates interest saved by closing a five-year loan
// after monthsPaid months.
func ForeclosureSavings(loanAmount int64, monthsPaid int) int64 {
	return int64(float64(loanAmount) * 0.11 * (5 - float64(monthsPaid)/12))
}

// Sanction is the outcome of an approval.
type Sanction struct {
	Amount       int64
	EMI          int64
	TenureMonths int
	NextEMIDate  string
}

func (s Sanction) String() string {
	return fmt.Sprintf("SUCCESS: Loan of ₹%d Approved! EMI: ₹%d/mo. Sanction Letter Generated.", s.Amount, s.EMI)
}

// Approver writes loan approvals to the store.
type Approver struct {
	store domain.LoanStore
	now   func() time.Time
}

func NewApprover(store domain.LoanStore) *Approver {
	return &Approver{store: store, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (a *Approver) WithClock(now func() time.Time) *Approver {
	a.now = now
	return a
}

// Approve computes the installment and records an approved status for the
// chat.
func (a *Approver) Approve(
	ctx context.Context,
	userID domain.UserID,
	chatID domain.ChatID,
	amount int64,
	tenureYears int,
) (Sanction, error) {
	emi, err := MonthlyInstallment(amount, tenureYears)
	if err != nil {
		return Sanction{}, err
	}
	s := Sanction{
		Amount:       amount,
		EMI:          emi,
		TenureMonths: tenureYears * 12,
		NextEMIDate:  a.now().AddDate(0, 0, DueInDays).Format(DueDateLayout),
	}

	if a.store == nil {
		return Sanction{}, domain.ErrStoreUnavailable
	}

	err = a.store.UpdateChatStatus(ctx, userID, chatID, domain.ChatStatus{
		Status:       domain.StatusApproved,
		LoanAmount:   s.Amount,
		EMIAmount:    s.EMI,
		TenureMonths: s.TenureMonths,
		NextEMIDate:  s.NextEMIDate,
		LoanScheme:   SchemeName,
	})
	if err != nil {
		return Sanction{}, fmt.Errorf("record approval: %w", err)
	}
	return s, nil
}
