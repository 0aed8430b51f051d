// Package pdf renders finalized orders into invoice documents and resolves
// the document reference handed back to the customer.
package pdf

import (
	"context"

	"github.com/otrade-bot/server/internal/order"
)

// ================ Config ================

type Config struct {
	OutputDir     string `envconfig:"PDF_OUTPUT_DIR" default:"invoices"`
	PublicBaseURL string `envconfig:"PDF_PUBLIC_BASE_URL"`
	BusinessName  string `envconfig:"PDF_BUSINESS_NAME" default:"OTRADE"`
}

// Renderer produces the invoice document for a finalized order and returns
// a reference the customer can follow. A failed render returns an error and
// produces no reference; the coordinator treats that as a retryable
// finalization failure.
type Renderer interface {
	RenderInvoice(ctx context.Context, payload order.Payload, invoiceNumber string) (string, error)
}
