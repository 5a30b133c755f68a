package fallback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/loan-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/loan-agent/internal/app/fallback"
	"github.com/PabloGalante/loan-agent/internal/app/lending"
	"github.com/PabloGalante/loan-agent/internal/domain"
)

var target = fallback.Target{UserID: "u1", ChatID: "c1"}

func newResponder() (*fallback.Responder, *memory.LoanStore) {
	store := memory.NewLoanStore()
	return fallback.NewLoanResponder(store, lending.NewApprover(store)), store
}

func TestRulePriority(t *testing.T) {
	cases := []struct {
		text   string
		rule   string
		status domain.LoanStatus
	}{
		{"Can you CHECK my score?", "eligibility", domain.StatusApplied},
		{"I uploaded the documents", "documents", domain.StatusVerified},
		{"please verify and approve", "documents", domain.StatusVerified},
		{"Yes, approve it", "approval", domain.StatusApproved},
	}

	for _, tc := range cases {
		t.Run(tc.rule+"/"+tc.text, func(t *testing.T) {
			r, store := newResponder()

			reply := r.Respond(context.Background(), target, tc.text)

			assert.Equal(t, tc.rule, reply.Rule)
			st, ok := store.ChatStatus("u1", "c1")
			require.True(t, ok)
			assert.Equal(t, tc.status, st.Status)
		})
	}
}

func TestApprovalWritesSanction(t *testing.T) {
	r, store := newResponder()

	reply := r.Respond(context.Background(), target, "approve")

	assert.Contains(t, reply.Text, "SUCCESS")
	st, _ := store.ChatStatus("u1", "c1")
	assert.Equal(t, int64(500000), st.LoanAmount)
	assert.Equal(t, int64(10623), st.EMIAmount)
	assert.Equal(t, 60, st.TenureMonths)
	assert.Equal(t, lending.SchemeName, st.LoanScheme)
}

func TestBusyReplyHasNoEffect(t *testing.T) {
	r, store := newResponder()

	reply := r.Respond(context.Background(), target, "hello there")

	assert.Equal(t, "busy", reply.Rule)
	assert.Equal(t, fallback.BusyReply, reply.Text)
	_, ok := store.ChatStatus("u1", "c1")
	assert.False(t, ok)
}

func TestEffectFailureStillReplies(t *testing.T) {
	r := fallback.NewResponder(fallback.Rule{
		Name:     "boom",
		Keywords: []string{"boom"},
		Reply:    "ok",
		Effect: func(context.Context, fallback.Target) error {
			return errors.New("store down")
		},
	})

	reply := r.Respond(context.Background(), target, "BOOM")
	assert.Equal(t, "ok", reply.Text)
}
