package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/PabloGalante/loan-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/loan-agent/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadLoanFileYAML(t *testing.T) {
	path := writeFile(t, "loans.yaml", `
- id: home-1
  name: Home Saver
  type: Home
  interestRate: 8.5
  maxAmount: 5000000
  minSalary: 30000
  features: No prepayment fee
  description: Low rate home loan
- id: car-1
  name: Wheels
  type: Car
  interestRate: 9
`)

	products, err := readLoanFile(path)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 8.5, products[0].InterestRate)
	assert.Equal(t, int64(5000000), products[0].MaxAmount)
	assert.Equal(t, "Car", products[1].Type)
}

func TestReadLoanFileJSON(t *testing.T) {
	path := writeFile(t, "loans.json", `[{"id":"edu-1","name":"Scholar","type":"Education","interestRate":7.25}]`)

	products, err := readLoanFile(path)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Scholar", products[0].Name)
}

func TestReadLoanFileRequiresIDs(t *testing.T) {
	path := writeFile(t, "loans.yaml", "- name: Nameless\n")

	_, err := readLoanFile(path)
	assert.ErrorContains(t, err, "has no id")
}

func TestWireAppWithMocks(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := wireApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.handler)
	_, isMemory := a.loans.(*memstore.LoanStore)
	assert.True(t, isMemory)

	path := writeFile(t, "loans.yaml", "- id: p1\n  name: Flexi\n  type: Personal\n  interestRate: 11\n")
	require.NoError(t, seedLoans(context.Background(), a.loans, path))
	a.catalog.Reload(context.Background())
	assert.Contains(t, a.catalog.Context(), "PRODUCT: Flexi (Personal) | Interest: 11%")
}
