package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otrade-bot/server/internal/order"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	got, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "missing session loads as nil, not error")

	s := order.NewState("s1")
	s.Merge(map[order.FieldName]string{order.FieldProductName: "rice"}, false)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "rice", loaded.Fields[order.FieldProductName])

	// the stored copy must not alias the caller's state
	loaded.Fields[order.FieldProductName] = "changed"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "rice", again.Fields[order.FieldProductName])

	require.NoError(t, store.Delete(ctx, "s1"))
	gone, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryConversationStoreHistoryWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore()

	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.AppendTurn(ctx, "s1", order.UserTurn(text)))
	}

	turns, err := store.History(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "c", turns[0].Text)
	assert.Equal(t, "d", turns[1].Text)

	all, err := store.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, store.Archive(ctx, "s1"))
	n, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryInvoiceStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryInvoiceStore()

	rec := order.InvoiceRecord{SessionID: "s1", InvoiceNumber: "INV-1", Status: order.InvoicePending}
	require.NoError(t, store.Save(ctx, rec))

	err := store.Save(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvoiceExists)

	require.NoError(t, store.UpdateStatus(ctx, "INV-1", order.InvoicePaid))
	recs, err := store.BySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, order.InvoicePaid, recs[0].Status)
}
