// Package finalize turns a complete order state into an invoice record and
// customer-facing confirmation. Finalization is the only path that assigns
// an invoice number.
package finalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	"github.com/otrade-bot/server/internal/pdf"
	logx "github.com/otrade-bot/server/pkg/logger"
)

const invoiceCurrency = "USD"

// Result carries everything the engine folds back into the conversation
// after a successful finalization.
type Result struct {
	InvoiceNumber string
	DocumentRef   string
	Confirmation  string
}

// Coordinator drives the finalize sequence: payload snapshot, invoice number
// assignment, document render, record persistence. Any failure leaves the
// state untouched so the next turn can retry.
type Coordinator struct {
	renderer pdf.Renderer
	invoices order.InvoiceStore
}

func NewCoordinator(renderer pdf.Renderer, invoices order.InvoiceStore) *Coordinator {
	return &Coordinator{renderer: renderer, invoices: invoices}
}

// Finalize runs the finalize sequence for a complete state. The caller holds
// the session lock; Finalize itself never mutates the state.
func (c *Coordinator) Finalize(ctx context.Context, state *order.State) (*Result, error) {
	if !state.ReadyForPDF() {
		return nil, errx.WrapFinalization(fmt.Errorf("state for session %s is not complete", state.SessionID))
	}

	payload := order.BuildPayload(state)
	number := NewInvoiceNumber(state.SessionID, payload.GeneratedAt)

	docRef, err := c.renderer.RenderInvoice(ctx, payload, number)
	if err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("invoice render failed")
		return nil, errx.WrapFinalization(err)
	}

	now := time.Now().UTC()
	rec := order.InvoiceRecord{
		SessionID:     state.SessionID,
		InvoiceNumber: number,
		DocumentRef:   docRef,
		Payload:       payload,
		TotalAmount:   0,
		Currency:      invoiceCurrency,
		Status:        order.InvoicePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.invoices.Save(ctx, rec); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Str("invoice_number", number).Msg("invoice save failed")
		return nil, errx.WrapFinalization(err)
	}

	logx.Info().
		Str("session_id", state.SessionID).
		Str("invoice_number", number).
		Str("document_ref", docRef).
		Msg("order finalized")

	return &Result{
		InvoiceNumber: number,
		DocumentRef:   docRef,
		Confirmation:  confirmationMessage(payload, number, docRef),
	}, nil
}

// NewInvoiceNumber builds a unique invoice number from the generation date,
// a session prefix and a 48-bit random suffix. The store's uniqueness check
// remains the backstop for the residual collision chance.
func NewInvoiceNumber(sessionID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("INV-%s-%s-%s",
		at.UTC().Format("20060102"),
		sessionFragment(sessionID),
		strings.ToUpper(suffix),
	)
}

func sessionFragment(sessionID string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, sessionID)
	if len(cleaned) > 8 {
		cleaned = cleaned[:8]
	}
	if cleaned == "" {
		cleaned = "session"
	}
	return strings.ToUpper(cleaned)
}

func confirmationMessage(payload order.Payload, number, docRef string) string {
	var b strings.Builder
	b.WriteString("Your order is confirmed!\n\n")
	fmt.Fprintf(&b, "Invoice %s\n", number)
	fmt.Fprintf(&b, "Product: %s\n", payload.Fields[order.FieldProductName])
	fmt.Fprintf(&b, "Quantity: %s %s\n", payload.Fields[order.FieldQuantity], payload.Fields[order.FieldQuantityUnit])
	fmt.Fprintf(&b, "Destination: %s, %s\n", payload.Fields[order.FieldCity], payload.Fields[order.FieldDestinationCountry])
	fmt.Fprintf(&b, "Shipping: %s\n", payload.Fields[order.FieldShippingIncoterm])
	fmt.Fprintf(&b, "Payment: %s\n\n", payload.Fields[order.FieldPaymentOption])
	fmt.Fprintf(&b, "Invoice document: %s\n", docRef)
	b.WriteString("Our sales team will reach out shortly to confirm pricing and next steps.")
	return b.String()
}
