package finalize

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	"github.com/otrade-bot/server/internal/repo"
)

type stubRenderer struct {
	err   error
	calls int
}

func (r *stubRenderer) RenderInvoice(_ context.Context, _ order.Payload, number string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "invoices/" + number + ".pdf", nil
}

func completeState(sessionID string) *order.State {
	s := order.NewState(sessionID)
	s.Merge(map[order.FieldName]string{
		order.FieldProductName:        "basmati rice",
		order.FieldQuantity:           "50",
		order.FieldQuantityUnit:       "carton",
		order.FieldDestinationCountry: "Germany",
		order.FieldCity:               "Hamburg",
		order.FieldStreetAddress:      "Hafenstrasse 1",
		order.FieldShippingIncoterm:   "CIF",
		order.FieldPaymentOption:      "bank transfer",
	}, false)
	return s
}

func TestFinalizeCreatesPendingInvoice(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryInvoiceStore()
	c := NewCoordinator(&stubRenderer{}, store)

	state := completeState("sess-1")
	res, err := c.Finalize(ctx, state)
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{8}-[A-Z0-9]{1,8}-[A-Z0-9]{12}$`, res.InvoiceNumber)
	assert.Contains(t, res.DocumentRef, res.InvoiceNumber)
	assert.Contains(t, res.Confirmation, res.InvoiceNumber)
	assert.Contains(t, res.Confirmation, "basmati rice")

	recs, err := store.BySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, order.InvoicePending, recs[0].Status)
	assert.Equal(t, "USD", recs[0].Currency)
	assert.Equal(t, 50.0, recs[0].Payload.Quantity)
}

func TestFinalizeRejectsIncompleteState(t *testing.T) {
	c := NewCoordinator(&stubRenderer{}, repo.NewMemoryInvoiceStore())

	state := order.NewState("sess-1")
	state.Merge(map[order.FieldName]string{order.FieldProductName: "tea"}, false)

	_, err := c.Finalize(context.Background(), state)
	require.Error(t, err)
	var ae *errx.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, errx.FinalizationErrorMessage, ae.Message)
}

func TestFinalizeRenderFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryInvoiceStore()
	rend := &stubRenderer{err: errors.New("disk full")}
	c := NewCoordinator(rend, store)

	state := completeState("sess-1")
	_, err := c.Finalize(ctx, state)
	require.Error(t, err)

	recs, err := store.BySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, recs, "a failed render must leave no invoice record")
	assert.False(t, state.Finalized())

	// a retry with a healthy renderer succeeds with the same state
	rend.err = nil
	res, err := c.Finalize(ctx, state)
	require.NoError(t, err)
	assert.NotEmpty(t, res.InvoiceNumber)
}

func TestInvoiceNumbersUnique(t *testing.T) {
	at := time.Now().UTC()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n := NewInvoiceNumber(fmt.Sprintf("session-%d", i%7), at)
		_, dup := seen[n]
		require.False(t, dup, "duplicate invoice number %s", n)
		seen[n] = struct{}{}
	}
}

func TestInvoiceNumberSessionFragment(t *testing.T) {
	n := NewInvoiceNumber("whatsapp_+49-171-555", time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^INV-20260829-WHATSAPP-[A-Z0-9]{12}$`, n)

	n = NewInvoiceNumber("!!!", time.Now())
	assert.Contains(t, n, "-SESSION-")
}
