// Package messaging delivers attendance reports over WhatsApp.
package messaging

import (
	"context"

	"github.com/rs/zerolog/log"

	"attendbot/internal/config"
	"attendbot/internal/metrics"
)

// ErrNotConfigured is the Result.Error of the Unconfigured sender.
const ErrNotConfigured = "Twilio not configured."

// Result reports the outcome of one delivery attempt.
type Result struct {
	Success bool
	Error   string
}

// Sender delivers a message body to a phone number. Implementations never
// panic and never return transport failures other than through Result.
type Sender interface {
	Send(ctx context.Context, to, body string) Result
}

// Unconfigured is the sender used when no provider credentials are set.
type Unconfigured struct{}

func (Unconfigured) Send(context.Context, string, string) Result {
	metrics.Messages.WithLabelValues("unconfigured").Inc()
	return Result{Success: false, Error: ErrNotConfigured}
}

// New picks the sender variant from the configured credentials.
func New(cfg config.App) Sender {
	if !cfg.TwilioConfigured() {
		log.Warn().Msg("TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN not set, WhatsApp delivery disabled")
		return Unconfigured{}
	}
	log.Info().Str("from", cfg.TwilioFrom).Msg("Twilio configured")
	return NewTwilio(cfg.TwilioAPIURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
}
