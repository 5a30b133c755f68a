package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

type chatKey struct {
	userID domain.UserID
	chatID domain.ChatID
}

// LoanStore is a simple in-memory implementation of domain.LoanStore.
// It is NOT persistent and is only suitable for development / local mode.
type LoanStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]domain.Profile
	products []domain.LoanProduct
	statuses map[chatKey]domain.ChatStatus
}

// NewLoanStore creates a new in-memory LoanStore.
func NewLoanStore() *LoanStore {
	return &LoanStore{
		profiles: make(map[domain.UserID]domain.Profile),
		statuses: make(map[chatKey]domain.ChatStatus),
	}
}

// PutProfile adds or replaces a user profile.
func (s *LoanStore) PutProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = p
}

func (s *LoanStore) GetProfile(_ context.Context, userID domain.UserID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (s *LoanStore) ListLoanProducts(_ context.Context) ([]domain.LoanProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LoanProduct, len(s.products))
	copy(out, s.products)
	return out, nil
}

// SaveLoanProducts upserts products by ID, keeping insertion order.
func (s *LoanStore) SaveLoanProducts(_ context.Context, products []domain.LoanProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		replaced := false
		for i := range s.products {
			if s.products[i].ID == p.ID {
				s.products[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			s.products = append(s.products, p)
		}
	}
	return nil
}

func (s *LoanStore) UpdateChatStatus(
	_ context.Context,
	userID domain.UserID,
	chatID domain.ChatID,
	status domain.ChatStatus,
) error {
	if chatID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatKey{userID: userID, chatID: chatID}
	s.statuses[key] = mergeStatus(s.statuses[key], status)
	return nil
}

// ChatStatus returns the merged status record of a chat.
func (s *LoanStore) ChatStatus(userID domain.UserID, chatID domain.ChatID) (domain.ChatStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[chatKey{userID: userID, chatID: chatID}]
	return st, ok
}

func mergeStatus(cur, upd domain.ChatStatus) domain.ChatStatus {
	if upd.Status != "" {
		cur.Status = upd.Status
	}
	if upd.LoanAmount != 0 {
		cur.LoanAmount = upd.LoanAmount
	}
	if upd.EMIAmount != 0 {
		cur.EMIAmount = upd.EMIAmount
	}
	if upd.TenureMonths != 0 {
		cur.TenureMonths = upd.TenureMonths
	}
	if upd.NextEMIDate != "" {
		cur.NextEMIDate = upd.NextEMIDate
	}
	if upd.LoanScheme != "" {
		cur.LoanScheme = upd.LoanScheme
	}
	return cur
}
