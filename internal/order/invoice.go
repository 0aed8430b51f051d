package order

import "time"

// InvoiceStatus tracks an invoice through payment confirmation. Only external
// payment events move it past pending.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Payload is the canonical order snapshot a finalization renders and stores.
// It is built once from a complete State and never mutated afterwards.
type Payload struct {
	SessionID   string               `json:"session_id"`
	Category    Category             `json:"category"`
	Fields      map[FieldName]string `json:"fields"`
	Quantity    float64              `json:"quantity"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// BuildPayload snapshots a complete state into the canonical order payload.
func BuildPayload(s *State) Payload {
	fields := make(map[FieldName]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	qty, _ := s.Quantity()
	return Payload{
		SessionID:   s.SessionID,
		Category:    s.Category,
		Fields:      fields,
		Quantity:    qty,
		GeneratedAt: time.Now().UTC(),
	}
}

// InvoiceRecord is created exactly once per successful finalization of a
// state generation.
type InvoiceRecord struct {
	SessionID     string        `json:"session_id"`
	InvoiceNumber string        `json:"invoice_number"`
	DocumentRef   string        `json:"document_ref"`
	Payload       Payload       `json:"payload"`
	TotalAmount   float64       `json:"total_amount"`
	Currency      string        `json:"currency"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
