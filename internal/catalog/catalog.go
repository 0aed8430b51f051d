// Package catalog exposes the product catalog capability. The engine only
// needs a trimmed product list to enrich extraction prompts for the
// Products & Sourcing category; availability and pricing stay advisory.
package catalog

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Product is one catalog entry, reduced to what the assistant needs.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// Client looks products up in the external catalog.
type Client interface {
	// ListProducts returns up to limit published products.
	ListProducts(ctx context.Context, limit int) ([]Product, error)

	// SearchProducts returns up to limit published products matching query.
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup from catalog descriptions before they reach a
// prompt or a reply.
func StripHTML(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, " "))
}

// Trim caps the product list and shortens descriptions so a catalog subset
// stays cheap to inject into the extraction prompt.
func Trim(products []Product, max int, descLen int) []Product {
	if max > 0 && len(products) > max {
		products = products[:max]
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		d := truncateRuneSafe(StripHTML(p.Description), descLen)
		out = append(out, Product{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			Description:   d,
		})
	}
	return out
}

// truncateRuneSafe caps s at max bytes without splitting a UTF-8 sequence.
func truncateRuneSafe(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
