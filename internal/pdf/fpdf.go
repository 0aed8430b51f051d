package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// ================ Fpdf Renderer ================

// FpdfRenderer writes A4 invoice documents to a local directory and returns
// either a public URL (when PDF_PUBLIC_BASE_URL is set) or the file path.
type FpdfRenderer struct {
	cfg Config
}

var _ Renderer = (*FpdfRenderer)(nil)

func NewFpdfRenderer(cfg Config) (*FpdfRenderer, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice output dir: %w", err)
	}
	return &FpdfRenderer{cfg: cfg}, nil
}

func (r *FpdfRenderer) RenderInvoice(ctx context.Context, payload order.Payload, invoiceNumber string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errx.WrapFinalization(err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(invoiceNumber, false)
	doc.AddPage()

	// Header.
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, r.cfg.BusinessName, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, "Commercial Invoice", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Invoice No: "+invoiceNumber, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Date: "+payload.GeneratedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Session: "+payload.SessionID, "", 1, "L", false, 0, "")
	doc.Ln(4)

	// Shipping details.
	r.sectionTitle(doc, "Shipping Details")
	r.labelRow(doc, "Destination", payload.Fields[order.FieldDestinationCountry])
	r.labelRow(doc, "City", payload.Fields[order.FieldCity])
	r.labelRow(doc, "Street Address", payload.Fields[order.FieldStreetAddress])
	r.labelRow(doc, "Incoterm", payload.Fields[order.FieldShippingIncoterm])
	doc.Ln(4)

	// Products table.
	r.sectionTitle(doc, "Products")
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(90, 7, "Product", "1", 0, "L", false, 0, "")
	doc.CellFormat(30, 7, "Quantity", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Unit", "1", 0, "L", false, 0, "")
	doc.CellFormat(40, 7, "Unit Price", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(90, 7, payload.Fields[order.FieldProductName], "1", 0, "L", false, 0, "")
	doc.CellFormat(30, 7, payload.Fields[order.FieldQuantity], "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, payload.Fields[order.FieldQuantityUnit], "1", 0, "L", false, 0, "")
	doc.CellFormat(40, 7, "on request", "1", 1, "R", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(0, 7, "Total: to be confirmed by sales", "", 1, "R", false, 0, "")
	doc.Ln(4)

	// Payment.
	r.sectionTitle(doc, "Payment")
	r.labelRow(doc, "Payment Option", payload.Fields[order.FieldPaymentOption])
	doc.Ln(8)

	doc.SetFont("Helvetica", "I", 9)
	doc.CellFormat(0, 5, "This invoice is pending confirmation by our sales team.", "", 1, "L", false, 0, "")

	filename := sanitizeFilename(invoiceNumber) + ".pdf"
	path := filepath.Join(r.cfg.OutputDir, filename)
	if err := doc.OutputFileAndClose(path); err != nil {
		logx.Error().Err(err).Str("invoice_number", invoiceNumber).Msg("invoice pdf write failed")
		return "", errx.WrapFinalization(err)
	}

	logx.Info().Str("invoice_number", invoiceNumber).Str("path", path).Msg("invoice pdf generated")

	if r.cfg.PublicBaseURL != "" {
		return strings.TrimRight(r.cfg.PublicBaseURL, "/") + "/" + filename, nil
	}
	return path, nil
}

func (r *FpdfRenderer) sectionTitle(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
}

func (r *FpdfRenderer) labelRow(doc *fpdf.Fpdf, label, value string) {
	if value == "" {
		value = "-"
	}
	doc.CellFormat(40, 6, label+":", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
