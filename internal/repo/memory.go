package repo

import (
	"context"
	"net/http"
	"sync"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
)

// In-memory store implementations backing the CLI and tests. They honor the
// same single-record atomicity contract as the Redis stores.

type MemorySessionStore struct {
	mu     sync.RWMutex
	states map[string]*order.State
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{states: make(map[string]*order.State)}
}

func (m *MemorySessionStore) Load(_ context.Context, sessionID string) (*order.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[sessionID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, state *order.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.SessionID] = state.Clone()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
	return nil
}

type MemoryConversationStore struct {
	mu       sync.RWMutex
	logs     map[string][]order.Turn
	archived map[string][]order.Turn
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		logs:     make(map[string][]order.Turn),
		archived: make(map[string][]order.Turn),
	}
}

func (m *MemoryConversationStore) AppendTurn(_ context.Context, sessionID string, turn order.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[sessionID] = append(m.logs[sessionID], turn)
	return nil
}

func (m *MemoryConversationStore) History(_ context.Context, sessionID string, limit int) ([]order.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.logs[sessionID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]order.Turn, len(log))
	copy(out, log)
	return out, nil
}

func (m *MemoryConversationStore) Archive(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived[sessionID] = append(m.archived[sessionID], m.logs[sessionID]...)
	delete(m.logs, sessionID)
	return nil
}

func (m *MemoryConversationStore) Count(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[sessionID]), nil
}

type MemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]order.InvoiceRecord
	bySess   map[string][]string
}

func NewMemoryInvoiceStore() *MemoryInvoiceStore {
	return &MemoryInvoiceStore{
		invoices: make(map[string]order.InvoiceRecord),
		bySess:   make(map[string][]string),
	}
}

func (m *MemoryInvoiceStore) Save(_ context.Context, rec order.InvoiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.invoices[rec.InvoiceNumber]; exists {
		return errx.New(ErrInvoiceExists, http.StatusConflict, "invoice number collision")
	}
	m.invoices[rec.InvoiceNumber] = rec
	m.bySess[rec.SessionID] = append(m.bySess[rec.SessionID], rec.InvoiceNumber)
	return nil
}

func (m *MemoryInvoiceStore) BySession(_ context.Context, sessionID string) ([]order.InvoiceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	numbers := m.bySess[sessionID]
	out := make([]order.InvoiceRecord, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, m.invoices[n])
	}
	return out, nil
}

func (m *MemoryInvoiceStore) UpdateStatus(_ context.Context, invoiceNumber string, status order.InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.invoices[invoiceNumber]
	if !ok {
		return errx.New(nil, http.StatusNotFound, errx.RedisNotFoundMessage)
	}
	rec.Status = status
	m.invoices[invoiceNumber] = rec
	return nil
}

var (
	_ order.SessionStore      = (*MemorySessionStore)(nil)
	_ order.ConversationStore = (*MemoryConversationStore)(nil)
	_ order.InvoiceStore      = (*MemoryInvoiceStore)(nil)
)
