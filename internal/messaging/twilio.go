package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"attendbot/internal/metrics"
	"attendbot/internal/telemetry"
)

const whatsappPrefix = "whatsapp:"

// Twilio sends WhatsApp messages through the Twilio Messages REST API.
type Twilio struct {
	AccountSID string
	From       string
	HTTP       *resty.Client
}

// apiError is the JSON body Twilio returns with non-2xx responses.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// NewTwilio creates a client against baseURL (https://api.twilio.com in
// production).
func NewTwilio(baseURL, accountSID, authToken, from string) *Twilio {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(accountSID, authToken).
		SetTimeout(30 * time.Second)
	telemetry.InstrumentResty(client, "attendbot/messaging")

	return &Twilio{
		AccountSID: accountSID,
		From:       withWhatsAppPrefix(from),
		HTTP:       client,
	}
}

// Send posts body to whatsapp:<to>.
func (t *Twilio) Send(ctx context.Context, to, body string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Error: fmt.Sprintf("twilio: %v", r)}
		}
		label := "sent"
		if !result.Success {
			label = "failed"
		}
		metrics.Messages.WithLabelValues(label).Inc()
	}()

	var (
		out    messageResponse
		apiErr apiError
	)
	res, err := t.HTTP.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": t.From,
			"To":   withWhatsAppPrefix(to),
			"Body": body,
		}).
		SetResult(&out).
		SetError(&apiErr).
		SetPathParam("sid", t.AccountSID).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		log.Error().Err(err).Msg("[messaging] twilio request failed")
		return Result{Success: false, Error: err.Error()}
	}
	if res.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("twilio error %s", res.Status())
		}
		log.Error().Int("status", res.StatusCode()).Int("code", apiErr.Code).Msg("[messaging] twilio rejected message")
		return Result{Success: false, Error: msg}
	}

	log.Info().Str("sid", out.SID).Str("status", out.Status).Msg("[messaging] message queued")
	return Result{Success: true}
}

func withWhatsAppPrefix(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}
