package order

import "context"

// SessionStore persists one State per session identifier. Implementations
// are atomic at the single-record level only; cross-record consistency is
// the engine's problem.
type SessionStore interface {
	// Load retrieves the state for a session. A missing or unreadable record
	// returns (nil, nil) so the caller starts a fresh session; only transport
	// failures surface as errors.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Save writes the state for its session identifier.
	Save(ctx context.Context, state *State) error

	// Delete removes the state for a session.
	Delete(ctx context.Context, sessionID string) error
}

// ConversationStore is the append-only turn log for a session.
type ConversationStore interface {
	// AppendTurn appends one turn to the session's log.
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error

	// History returns up to limit most recent turns, oldest first.
	// limit <= 0 returns the full log.
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Archive moves the session's log aside for audit and leaves the live
	// log empty. Used by the new-chat reset.
	Archive(ctx context.Context, sessionID string) error

	// Count returns the number of turns in the session's log.
	Count(ctx context.Context, sessionID string) (int, error)
}

// InvoiceStore persists finalized invoices. The store enforces invoice
// number uniqueness; Save fails when the number already exists.
type InvoiceStore interface {
	Save(ctx context.Context, rec InvoiceRecord) error
	BySession(ctx context.Context, sessionID string) ([]InvoiceRecord, error)
	UpdateStatus(ctx context.Context, invoiceNumber string, status InvoiceStatus) error
}
