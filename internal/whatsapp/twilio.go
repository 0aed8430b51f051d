package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	logx "github.com/otrade-bot/server/pkg/logger"
)

// TwilioClient sends WhatsApp messages through the Twilio Messages API.
// Sends go through a circuit breaker so a Twilio outage cannot pile up
// blocked goroutines.
type TwilioClient struct {
	cfg     Config
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
}

var _ Sender = (*TwilioClient)(nil)

func NewTwilioClient(cfg Config) *TwilioClient {
	return &TwilioClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "twilio",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logx.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("whatsapp circuit breaker state change")
			},
		}),
	}
}

func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	if !c.cfg.Configured() {
		return fmt.Errorf("twilio is not configured")
	}

	form := url.Values{
		"From": {Address(c.cfg.From)},
		"To":   {Address(to)},
		"Body": {body},
	}

	_, err := c.breaker.Execute(func() (any, error) {
		endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.cfg.AccountSID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("twilio status %d: %s", resp.StatusCode, string(detail))
		}
		return nil, nil
	})
	if err != nil {
		logx.Error().Err(err).Str("to", to).Msg("whatsapp send failed")
		return err
	}

	logx.Info().Str("to", to).Int("body_len", len(body)).Msg("whatsapp message sent")
	return nil
}
