package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

const (
	// NoStoreText is the knowledge text when no loan store is configured.
	NoStoreText = "No loan data available."
	// UnavailableText is the knowledge text when the catalog cannot be read.
	UnavailableText = "No loan products found."
)

// Service renders the loan catalog into the background knowledge text the
// system prompt embeds. The text is cached until Reload.
type Service struct {
	store domain.LoanStore

	mu   sync.RWMutex
	text string
}

// NewService creates a catalog service from a LoanStore. A nil store is
// allowed and yields NoStoreText.
func NewService(store domain.LoanStore) *Service {
	return &Service{
		store: store,
		text:  NoStoreText,
	}
}

// Reload reads the catalog again. Read failures degrade to UnavailableText
// and are only logged.
func (s *Service) Reload(ctx context.Context) {
	text := NoStoreText
	if s.store != nil {
		products, err := s.store.ListLoanProducts(ctx)
		if err != nil {
			observability.LoggerFromContext(ctx).Error("failed to load loan catalog",
				slog.String("error", err.Error()),
			)
			text = UnavailableText
		} else {
			text = Render(products)
		}
	}

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// Context returns the current knowledge text.
func (s *Service) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.text
}

// Render formats products the way the system prompt expects them.
func Render(products []domain.LoanProduct) string {
	var b strings.Builder
	b.WriteString("AVAILABLE LOAN PRODUCTS:\n")
	for _, p := range products {
		b.WriteString("PRODUCT: " + p.Name + " (" + p.Type + ") | Interest: " +
			strconv.FormatFloat(p.InterestRate, 'f', -1, 64) + "%\n")
		b.WriteString("   - Description: " + p.Description + "\n")
	}
	return b.String()
}
