// Package whatsapp delivers assistant replies over WhatsApp. The webhook
// handler answers Twilio synchronously; this client exists for proactive
// sends such as invoice follow-ups.
package whatsapp

import (
	"context"
	"strings"
)

// ================ Config ================

type Config struct {
	AccountSID     string `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken      string `envconfig:"TWILIO_AUTH_TOKEN"`
	From           string `envconfig:"TWILIO_WHATSAPP_FROM"`
	TimeoutSeconds int    `envconfig:"TWILIO_TIMEOUT_SECONDS" default:"15"`
}

// Configured reports whether the Twilio credentials are present.
func (c Config) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// Sender delivers one outbound message to a WhatsApp number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// PhoneNumber strips the whatsapp: channel prefix from a Twilio address,
// leaving the E.164 number used as the session key.
func PhoneNumber(address string) string {
	return strings.TrimPrefix(strings.TrimSpace(address), "whatsapp:")
}

// Address adds the whatsapp: channel prefix expected by the Twilio API.
func Address(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
