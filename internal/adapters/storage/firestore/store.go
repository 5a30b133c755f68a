package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cast"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// Config selects the project and credentials. With neither CredentialsJSON
// nor CredentialsFile set, application default credentials are used.
type Config struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
}

// Store implements domain.LoanStore on Firestore. Layout:
//
//	users/{uid}                       profile
//	users/{uid}/chatHistory/{chatId}  loan status of one chat
//	loans/{id}                        loan catalog
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(id))
}

func (s *Store) chatDoc(userID domain.UserID, chatID domain.ChatID) *firestore.DocumentRef {
	return s.userDoc(userID).Collection("chatHistory").Doc(string(chatID))
}

func (s *Store) loansCol() *firestore.CollectionRef {
	return s.client.Collection("loans")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("firestore %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// ─────────────────────────────────────────
// LoanStore implementation
// ─────────────────────────────────────────

// GetProfile reads users/{uid}. Documents written by other clients store
// numbers as either integers or doubles, so fields are decoded leniently.
func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrProfileNotFound
		}
		return nil, unavailable("GetProfile", err)
	}

	data := snap.Data()
	docs := cast.ToStringMap(data["documents"])
	return &domain.Profile{
		UserID:           userID,
		Name:             cast.ToString(data["name"]),
		CreditScore:      cast.ToInt(data["creditScore"]),
		PreApprovedLimit: cast.ToInt64(data["preApprovedLimit"]),
		PANCard:          cast.ToString(data["panCard"]),
		Documents: domain.Documents{
			SalarySlip:      cast.ToBool(docs["salarySlip"]),
			PropertyPapers:  cast.ToBool(docs["propertyPapers"]),
			VehicleRC:       cast.ToBool(docs["vehicleRC"]),
			AdmissionLetter: cast.ToBool(docs["admissionLetter"]),
		},
	}, nil
}

func (s *Store) ListLoanProducts(ctx context.Context) ([]domain.LoanProduct, error) {
	iter := s.loansCol().Documents(ctx)
	defer iter.Stop()

	var out []domain.LoanProduct
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, unavailable("ListLoanProducts", err)
		}
		out = append(out, productFromData(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

func productFromData(id string, data map[string]any) domain.LoanProduct {
	if v := cast.ToString(data["id"]); v != "" {
		id = v
	}
	return domain.LoanProduct{
		ID:           id,
		Name:         cast.ToString(data["name"]),
		Type:         cast.ToString(data["type"]),
		InterestRate: cast.ToFloat64(data["interestRate"]),
		MaxAmount:    cast.ToInt64(data["maxAmount"]),
		MinSalary:    cast.ToInt64(data["minSalary"]),
		Features:     cast.ToString(data["features"]),
		Description:  cast.ToString(data["description"]),
	}
}

func productData(p domain.LoanProduct) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"type":         p.Type,
		"interestRate": p.InterestRate,
		"maxAmount":    p.MaxAmount,
		"minSalary":    p.MinSalary,
		"features":     p.Features,
		"description":  p.Description,
	}
}

// SaveLoanProducts upserts every product in a single batch.
func (s *Store) SaveLoanProducts(ctx context.Context, products []domain.LoanProduct) error {
	if len(products) == 0 {
		return nil
	}

	batch := s.client.Batch()
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("loan product %q has no id", p.Name)
		}
		batch.Set(s.loansCol().Doc(p.ID), productData(p))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return unavailable("SaveLoanProducts", err)
	}
	return nil
}

// statusData keeps only the fields that are set, so that MergeAll leaves
// the rest of the chat record untouched.
func statusData(st domain.ChatStatus) map[string]any {
	out := make(map[string]any)
	if st.Status != "" {
		out["loanStatus"] = string(st.Status)
	}
	if st.LoanAmount != 0 {
		out["loanAmount"] = st.LoanAmount
	}
	if st.EMIAmount != 0 {
		out["emiAmount"] = st.EMIAmount
	}
	if st.TenureMonths != 0 {
		out["tenureMonths"] = st.TenureMonths
	}
	if st.NextEMIDate != "" {
		out["nextEmiDate"] = st.NextEMIDate
	}
	if st.LoanScheme != "" {
		out["loanScheme"] = st.LoanScheme
	}
	return out
}

func (s *Store) UpdateChatStatus(
	ctx context.Context,
	userID domain.UserID,
	chatID domain.ChatID,
	st domain.ChatStatus,
) error {
	if chatID == "" {
		return nil
	}
	data := statusData(st)
	if len(data) == 0 {
		return nil
	}

	if _, err := s.chatDoc(userID, chatID).Set(ctx, data, firestore.MergeAll); err != nil {
		return unavailable("UpdateChatStatus", err)
	}
	return nil
}
