package domain

import "context"

// ModelBackend is one credentialed connection to a tool-calling model.
type ModelBackend interface {
	Name() string
	Invoke(ctx context.Context, history []Message, tools []ToolSchema) (Message, error)
}

// SessionStore keeps the per-user message history.
type SessionStore interface {
	// GetOrCreate returns the user's history, creating it with the given
	// system message when absent. Histories longer than the trim threshold
	// are compacted before being returned.
	GetOrCreate(ctx context.Context, userID UserID, system Message) ([]Message, error)
	// Append adds msgs to the end of the history as one batch.
	Append(ctx context.Context, userID UserID, msgs ...Message) error
}

// LoanStore is the external profile / loan document store.
type LoanStore interface {
	GetProfile(ctx context.Context, userID UserID) (*Profile, error)
	ListLoanProducts(ctx context.Context) ([]LoanProduct, error)
	SaveLoanProducts(ctx context.Context, products []LoanProduct) error
	// UpdateChatStatus merges status into the chat's record. An empty
	// chatID is a no-op.
	UpdateChatStatus(ctx context.Context, userID UserID, chatID ChatID, status ChatStatus) error
}
