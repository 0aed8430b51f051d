package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// ErrInvoiceExists reports an invoice number collision. The coordinator
// minimises collision probability up front; the store is the backstop.
var ErrInvoiceExists = errors.New("invoice number already exists")

type RedisInvoiceStore struct {
	rdb redis.Cmdable
}

func NewRedisInvoiceStore(rdb redis.Cmdable) *RedisInvoiceStore {
	return &RedisInvoiceStore{rdb: rdb}
}

func (r *RedisInvoiceStore) invoiceKey(invoiceNumber string) string {
	return fmt.Sprintf("invoice:%s", invoiceNumber)
}

func (r *RedisInvoiceStore) sessionIndexKey(sessionID string) string {
	return fmt.Sprintf("session:%s:invoices", sessionID)
}

func (r *RedisInvoiceStore) Save(ctx context.Context, rec order.InvoiceRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}

	// SETNX enforces invoice number uniqueness at the store level
	ok, err := r.rdb.SetNX(ctx, r.invoiceKey(rec.InvoiceNumber), b, 0).Result()
	if err != nil {
		logx.Error().Err(err).Str("invoice_number", rec.InvoiceNumber).Msg("failed to save invoice to redis")
		return errx.WrapRedis(err)
	}
	if !ok {
		return errx.New(ErrInvoiceExists, http.StatusConflict, "invoice number collision")
	}

	if err := r.rdb.RPush(ctx, r.sessionIndexKey(rec.SessionID), rec.InvoiceNumber).Err(); err != nil {
		// the invoice record itself is durable; a broken index is a stale view
		logx.Warn().Err(err).Str("invoice_number", rec.InvoiceNumber).Msg("failed to index invoice for session")
	}
	return nil
}

func (r *RedisInvoiceStore) BySession(ctx context.Context, sessionID string) ([]order.InvoiceRecord, error) {
	numbers, err := r.rdb.LRange(ctx, r.sessionIndexKey(sessionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []order.InvoiceRecord{}, nil
		}
		return nil, errx.WrapRedis(err)
	}

	out := make([]order.InvoiceRecord, 0, len(numbers))
	for _, n := range numbers {
		raw, err := r.rdb.Get(ctx, r.invoiceKey(n)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, errx.WrapRedis(err)
		}
		var rec order.InvoiceRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			logx.Warn().Err(err).Str("invoice_number", n).Msg("skipping unreadable invoice record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisInvoiceStore) UpdateStatus(ctx context.Context, invoiceNumber string, status order.InvoiceStatus) error {
	key := r.invoiceKey(invoiceNumber)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		return errx.WrapRedis(err)
	}

	var rec order.InvoiceRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("unmarshal invoice %s: %w", invoiceNumber, err)
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}
	if err := r.rdb.Set(ctx, key, b, 0).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ order.InvoiceStore = (*RedisInvoiceStore)(nil)
