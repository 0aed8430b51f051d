// Package extract wraps the language-model capability behind a typed
// boundary: free conversation text goes in, a category label plus validated
// field observations come out. The engine never sees the model's raw shape.
package extract

import (
	"context"

	"github.com/otrade-bot/server/internal/catalog"
	"github.com/otrade-bot/server/internal/order"
)

// ================ Config ================

type Config struct {
	Provider    string  `envconfig:"EXTRACTOR_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"EXTRACTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0.3"`

	// HistoryTurns caps how many past exchanges are replayed to the model.
	// Bounding the window bounds cost and latency of every call.
	HistoryTurns int `envconfig:"EXTRACTOR_HISTORY_TURNS" default:"4"`

	// MaxCatalogItems caps the catalog subset injected into the prompt.
	MaxCatalogItems int `envconfig:"EXTRACTOR_MAX_CATALOG_ITEMS" default:"50"`

	// TimeoutSeconds bounds a single model call.
	TimeoutSeconds int `envconfig:"EXTRACTOR_TIMEOUT_SECONDS" default:"30"`
}

// Request carries one turn's extraction input: the new user message, the
// bounded recent history, and the fields already known for the session.
// Known fields are context for the model only; its output is still treated
// as observations about this turn, never as a restatement of prior state.
type Request struct {
	SessionID string
	Message   string
	History   []order.Turn
	Known     map[order.FieldName]string
	Catalog   []catalog.Product
}

// Result is one turn's typed extraction outcome. Fields holds only values
// the model asserted were mentioned in this turn; a field absent here does
// not mean the user retracted it.
type Result struct {
	Category order.Category
	Fields   map[order.FieldName]string
	// Reply is the model's natural-language response preceding the metadata
	// line. May be empty, in which case the engine composes its own prompt.
	Reply string
	// CostUSD is the computed usage cost of the underlying call, when the
	// provider reported token usage.
	CostUSD float64
}

// Extractor converts a conversation turn into a category plus observed
// fields. A failed or timed-out underlying call returns an error (wrapped as
// extraction-unavailable) rather than an empty-but-successful result, so the
// engine can fall back to a clarifying prompt instead of silently losing the
// turn's information.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}
