// Package engine drives the order conversation: one ProcessTurn call per
// inbound message, serialised per session, moving the order state from
// collecting through complete to finalized.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/otrade-bot/server/internal/catalog"
	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/extract"
	"github.com/otrade-bot/server/internal/finalize"
	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// ================ Config ================

type Config struct {
	// HistoryTurns caps how many logged turns are replayed to the extractor.
	HistoryTurns int `envconfig:"ENGINE_HISTORY_TURNS" default:"8"`

	// OverwriteFields lets a later extraction replace an already-set field.
	// Off by default: once confirmed, a value only changes via reset.
	OverwriteFields bool `envconfig:"ENGINE_OVERWRITE_FIELDS" default:"false"`

	// EscalationTurns is the turn count after which an incomplete order
	// offers a human handoff alongside the next question.
	EscalationTurns int `envconfig:"ENGINE_ESCALATION_TURNS" default:"12"`

	// CatalogItems caps the catalog subset fetched for product turns.
	CatalogItems int `envconfig:"ENGINE_CATALOG_ITEMS" default:"50"`

	// CatalogDescriptionLen caps catalog description length in prompts.
	CatalogDescriptionLen int `envconfig:"ENGINE_CATALOG_DESCRIPTION_LEN" default:"200"`
}

// Reply is what one processed turn hands back to the transport layer.
type Reply struct {
	SessionID     string `json:"session_id"`
	Text          string `json:"text"`
	Category      string `json:"category"`
	ReadyForPDF   bool   `json:"ready_for_pdf"`
	Finalized     bool   `json:"finalized"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	DocumentRef   string `json:"document_ref,omitempty"`
}

// Engine owns the turn state machine. All state mutation for a session
// happens inside ProcessTurn or Reset while the session lock is held.
type Engine struct {
	cfg       Config
	sessions  order.SessionStore
	turns     order.ConversationStore
	extractor extract.Extractor
	finalizer *finalize.Coordinator
	catalog   catalog.Client // nil when no catalog is configured
	locks     *sessionLocks
}

func New(cfg Config, sessions order.SessionStore, turns order.ConversationStore, extractor extract.Extractor, finalizer *finalize.Coordinator, cat catalog.Client) *Engine {
	return &Engine{
		cfg:       cfg,
		sessions:  sessions,
		turns:     turns,
		extractor: extractor,
		finalizer: finalizer,
		catalog:   cat,
		locks:     newSessionLocks(),
	}
}

// ProcessTurn runs one conversation turn end to end: load or create the
// session state, extract observations from the message, merge them, and
// either ask for the next missing field or finalize the order. Persistence
// runs on a detached context so a client disconnect after extraction cannot
// lose the turn.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if sessionID == "" || message == "" {
		return nil, errx.New(errors.New("empty session id or message"), 400, "session_id and message are required")
	}

	release := e.locks.acquire(sessionID)
	defer release()

	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = order.NewState(sessionID)
	}

	history, err := e.turns.History(ctx, sessionID, e.cfg.HistoryTurns)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("history load failed, extracting without it")
		history = nil
	}

	// The user turn is part of the record even when extraction fails.
	persistCtx := context.WithoutCancel(ctx)
	if err := e.turns.AppendTurn(persistCtx, sessionID, order.UserTurn(message)); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("user turn append failed")
	}

	state.TurnCount++

	res, err := e.extractor.Extract(ctx, extract.Request{
		SessionID: sessionID,
		Message:   message,
		History:   history,
		Known:     state.Fields,
		Catalog:   e.catalogSubset(ctx, state, message),
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("extraction failed")
		text := e.extractionFallback(state)
		e.persist(persistCtx, state, text)
		return e.reply(state, text), nil
	}

	// Merge precedes the category branch: field observations land even when
	// the turn was labelled with a non-collection category.
	merged := state.Merge(res.Fields, e.cfg.OverwriteFields)
	state.SetCategory(res.Category)

	logx.Info().
		Str("session_id", sessionID).
		Str("category", state.Category.String()).
		Int("applied", len(merged.Applied)).
		Int("rejected", len(merged.Rejected)).
		Int("turn_count", state.TurnCount).
		Msg("turn extracted")

	var text string
	switch {
	case state.Finalized():
		text = e.afterFinalized(res, state)
	case state.ReadyForPDF():
		fin, ferr := e.finalizer.Finalize(ctx, state)
		if ferr != nil {
			// State stays complete; the next turn retries finalization
			// without re-collecting anything.
			logx.Error().Err(ferr).Str("session_id", sessionID).Msg("finalization failed, will retry next turn")
			text = "I have everything I need for your order, but generating the invoice hit a snag on our side. Send any message and I will try again."
		} else {
			state.InvoiceNumber = fin.InvoiceNumber
			text = fin.Confirmation
			e.persist(persistCtx, state, text)
			rep := e.reply(state, text)
			rep.DocumentRef = fin.DocumentRef
			return rep, nil
		}
	default:
		text = e.collectingReply(res, state, merged)
	}

	e.persist(persistCtx, state, text)
	return e.reply(state, text), nil
}

// Reset archives the session's conversation log, drops its state and hands
// out a fresh session identifier for the next conversation.
func (e *Engine) Reset(ctx context.Context, sessionID string) (string, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	if err := e.turns.Archive(ctx, sessionID); err != nil {
		return "", fmt.Errorf("archive conversation: %w", err)
	}
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return "", fmt.Errorf("delete session state: %w", err)
	}

	next := uuid.NewString()
	logx.Info().Str("session_id", sessionID).Str("next_session_id", next).Msg("session reset")
	return next, nil
}

// ================ Reply composition ================

func (e *Engine) collectingReply(res *extract.Result, state *order.State, merged order.MergeResult) string {
	var parts []string

	if r := strings.TrimSpace(res.Reply); r != "" {
		parts = append(parts, r)
	}

	if len(merged.Rejected) > 0 {
		names := make([]string, 0, len(merged.Rejected))
		for _, f := range merged.Rejected {
			names = append(names, order.DisplayName(f))
		}
		parts = append(parts, fmt.Sprintf("I could not use the value you gave for %s. Could you restate it?", strings.Join(names, " and ")))
	}

	// Collection-category turns always steer toward the next unset field.
	// The model usually asks on its own; when its reply carries no question
	// (or is empty), a deterministic prompt is appended so the session
	// cannot stall silently. Default-category turns stay free-form.
	needPrompt := len(parts) == 0 ||
		(!state.Category.IsDefault() && !strings.Contains(strings.Join(parts, ""), "?"))
	if needPrompt {
		if missing := state.Missing(); len(missing) > 0 {
			parts = append(parts, fmt.Sprintf("Could you tell me %s?", order.DisplayName(missing[0])))
		} else if len(parts) == 0 {
			parts = append(parts, "How can I help you with your order?")
		}
	}

	if state.TurnCount >= e.cfg.EscalationTurns && e.cfg.EscalationTurns > 0 {
		parts = append(parts, "If you would rather sort this out directly, I can have a member of our sales team contact you.")
	}

	return strings.Join(parts, "\n\n")
}

func (e *Engine) afterFinalized(res *extract.Result, state *order.State) string {
	if r := strings.TrimSpace(res.Reply); r != "" {
		return r
	}
	return fmt.Sprintf("Your order is already confirmed under invoice %s. Our sales team will be in touch; is there anything else I can help with?", state.InvoiceNumber)
}

func (e *Engine) extractionFallback(state *order.State) string {
	if missing := state.Missing(); len(missing) > 0 && !state.Finalized() {
		return fmt.Sprintf("Sorry, I had trouble reading that. Could you rephrase, and let me know %s?", order.DisplayName(missing[0]))
	}
	return "Sorry, I had trouble reading that. Could you say it again?"
}

// ================ Persistence ================

func (e *Engine) persist(ctx context.Context, state *order.State, text string) {
	if err := e.sessions.Save(ctx, state); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("state save failed")
	}
	if err := e.turns.AppendTurn(ctx, state.SessionID, order.AssistantTurn(text, state.Snapshot())); err != nil {
		logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("assistant turn append failed")
	}
}

func (e *Engine) reply(state *order.State, text string) *Reply {
	return &Reply{
		SessionID:     state.SessionID,
		Text:          text,
		Category:      state.Category.String(),
		ReadyForPDF:   state.ReadyForPDF(),
		Finalized:     state.Finalized(),
		InvoiceNumber: state.InvoiceNumber,
	}
}

// catalogSubset fetches a trimmed catalog for product-relevant turns: while
// the product is still unknown, or while the conversation sits in the
// Products & Sourcing category.
func (e *Engine) catalogSubset(ctx context.Context, state *order.State, message string) []catalog.Product {
	if e.catalog == nil {
		return nil
	}
	if state.Fields[order.FieldProductName] != "" && state.Category != order.CategoryProducts {
		return nil
	}
	products, err := e.catalog.SearchProducts(ctx, message, e.cfg.CatalogItems)
	if err != nil {
		logx.Warn().Err(err).Msg("catalog lookup failed, extracting without it")
		return nil
	}
	if len(products) == 0 {
		products, err = e.catalog.ListProducts(ctx, e.cfg.CatalogItems)
		if err != nil {
			logx.Warn().Err(err).Msg("catalog list failed, extracting without it")
			return nil
		}
	}
	return catalog.Trim(products, e.cfg.CatalogItems, e.cfg.CatalogDescriptionLen)
}
