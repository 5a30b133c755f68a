package lending_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/loan-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/loan-agent/internal/app/lending"
	"github.com/PabloGalante/loan-agent/internal/domain"
)

func TestMonthlyInstallment(t *testing.T) {
	r := 0.10 / 12
	growth := math.Pow(1+r, 60)
	want := int64(500000 * r * growth / (growth - 1))

	got, err := lending.MonthlyInstallment(500000, 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(10623), got)

	got, err = lending.MonthlyInstallment(500000, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMonthlyInstallmentOverflow(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		years  int
	}{
		{"endless tenure", 500000, 10000},
		{"months overflow int", 500000, math.MaxInt / 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lending.MonthlyInstallment(tc.amount, tc.years)
			assert.ErrorIs(t, err, domain.ErrInvalidToolArguments)
		})
	}
}

func TestApproverRejectsOverflowWithoutWriting(t *testing.T) {
	store := memory.NewLoanStore()

	_, err := lending.NewApprover(store).Approve(context.Background(), "u1", "c1", 500000, 10000)
	assert.ErrorIs(t, err, domain.ErrInvalidToolArguments)

	_, ok := store.ChatStatus("u1", "c1")
	assert.False(t, ok)
}

func TestMissingDocuments(t *testing.T) {
	cases := []struct {
		name     string
		loanType string
		docs     domain.Documents
		want     []string
	}{
		{"personal complete", "Personal", domain.Documents{SalarySlip: true}, nil},
		{"personal empty", "Personal", domain.Documents{}, []string{"Salary Slip"}},
		{"home missing papers", "Home Loan", domain.Documents{SalarySlip: true}, []string{"Property Papers"}},
		{"home complete", "Home Loan", domain.Documents{SalarySlip: true, PropertyPapers: true}, nil},
		{"auto", "Auto Loan", domain.Documents{}, []string{"Salary Slip", "Vehicle RC"}},
		{"car", "Car Loan", domain.Documents{SalarySlip: true, VehicleRC: true}, nil},
		{"education", "Education Loan", domain.Documents{SalarySlip: true}, []string{"Admission Letter"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lending.MissingDocuments(tc.loanType, tc.docs))
		})
	}
}

func TestEligibility(t *testing.T) {
	assert.Equal(t, "APPROVED_INSTANTLY", lending.Eligibility(300000, 50000, 300000))
	assert.Equal(t, "APPROVED_CONDITIONAL", lending.Eligibility(500000, 50000, 300000))
	assert.Equal(t, "REJECTED: EMI too high.", lending.Eligibility(500000, 10000, 300000))
	assert.Equal(t, "REJECTED: Amount too high.", lending.Eligibility(700000, 500000, 300000))
}

func TestForeclosureSavings(t *testing.T) {
	assert.Equal(t, int64(27500), lending.ForeclosureSavings(100000, 30))
}

func TestApproverWritesStatus(t *testing.T) {
	store := memory.NewLoanStore()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	approver := lending.NewApprover(store).WithClock(func() time.Time { return now })

	s, err := approver.Approve(context.Background(), "u1", "c1", 500000, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10623), s.EMI)
	assert.Equal(t, "09 Feb 2026", s.NextEMIDate)
	assert.Equal(t, "SUCCESS: Loan of ₹500000 Approved! EMI: ₹10623/mo. Sanction Letter Generated.", s.String())

	st, ok := store.ChatStatus("u1", "c1")
	require.True(t, ok)
	assert.Equal(t, domain.ChatStatus{
		Status:       domain.StatusApproved,
		LoanAmount:   500000,
		EMIAmount:    10623,
		TenureMonths: 60,
		NextEMIDate:  "09 Feb 2026",
		LoanScheme:   "Byte Flexi Loan",
	}, st)
}

func TestApproverWithoutStore(t *testing.T) {
	_, err := lending.NewApprover(nil).Approve(context.Background(), "u1", "c1", 1000, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
