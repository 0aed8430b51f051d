package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	logx "github.com/otrade-bot/server/pkg/logger"
)

// ================ Config ================

type Config struct {
	BaseURL        string `envconfig:"WOOCOMMERCE_URL"`
	ConsumerKey    string `envconfig:"WOOCOMMERCE_CONSUMER_KEY"`
	ConsumerSecret string `envconfig:"WOOCOMMERCE_CONSUMER_SECRET"`
	TimeoutSeconds int    `envconfig:"WOOCOMMERCE_TIMEOUT_SECONDS" default:"12"`
}

// Configured reports whether all credentials are present. The engine treats
// an unconfigured catalog as empty rather than an error.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// WooCommerceClient talks to the WooCommerce products REST API. Calls go
// through a circuit breaker so a flapping shop backend cannot stall every
// conversation turn.
type WooCommerceClient struct {
	cfg     Config
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWooCommerceClient(cfg Config) *WooCommerceClient {
	return &WooCommerceClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "woocommerce",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logx.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("catalog circuit breaker state change")
			},
		}),
	}
}

type wooProduct struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Price            string `json:"price"`
	StockQuantity    *int   `json:"stock_quantity"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
}

func (c *WooCommerceClient) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	return c.fetch(ctx, url.Values{
		"per_page": {strconv.Itoa(limit)},
		"status":   {"publish"},
	})
}

func (c *WooCommerceClient) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	return c.fetch(ctx, url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(limit)},
		"status":   {"publish"},
	})
}

func (c *WooCommerceClient) fetch(ctx context.Context, params url.Values) ([]Product, error) {
	if !c.cfg.Configured() {
		return nil, nil
	}

	out, err := c.breaker.Execute(func() (any, error) {
		endpoint := fmt.Sprintf("%s/wp-json/wc/v3/products?%s", c.cfg.BaseURL, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("woocommerce status %d: %s", resp.StatusCode, string(body))
		}

		var rows []wooProduct
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		logx.Error().Err(err).Msg("catalog fetch failed")
		return nil, err
	}

	rows := out.([]wooProduct)
	products := make([]Product, 0, len(rows))
	for _, r := range rows {
		price, _ := strconv.ParseFloat(r.Price, 64)
		desc := r.ShortDescription
		if desc == "" {
			desc = r.Description
		}
		products = append(products, Product{
			ID:            r.ID,
			Name:          r.Name,
			Price:         price,
			StockQuantity: r.StockQuantity,
			Description:   desc,
		})
	}
	return products, nil
}

var _ Client = (*WooCommerceClient)(nil)
