package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"attendbot/internal/attendance"
	"attendbot/internal/messaging"
	"attendbot/internal/metrics"
	"attendbot/internal/portal"
	"attendbot/internal/store"
)

const (
	msgMissingFields = "Please fill all fields."
	msgHealthy       = "Server running and healthy"
	msgReportSent    = "Report sent."
)

type Handler struct {
	generator portal.Generator
	sender    messaging.Sender
	optIn     string
	redis     *store.Redis // nil unless the Redis rate limiter is in use
}

// New wires the scrape flow. optIn is appended to every outgoing report.
func New(gen portal.Generator, sender messaging.Sender, optIn string, redis *store.Redis) *Handler {
	if sender == nil {
		sender = messaging.Unconfigured{}
	}
	return &Handler{generator: gen, sender: sender, optIn: optIn, redis: redis}
}

// ---------- Health ----------

func (h *Handler) ScrapeStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": msgHealthy})
}

// Healthz is the readiness probe; it fails only when a configured Redis is
// unreachable.
func (h *Handler) Healthz(c *gin.Context) {
	if h.redis == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	redisHealthy := h.redis.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
}

// ---------- Scrape ----------

// scrapeRequest keeps the fields raw so a number or boolean counts as
// present; only a missing key, null or "" is rejected.
type scrapeRequest struct {
	UserID   json.RawMessage `json:"userId"`
	Username json.RawMessage `json:"username"`
	Password json.RawMessage `json:"password"`
	WhatsApp json.RawMessage `json:"whatsapp"`
}

// required returns username, password and whatsapp as strings, or false when
// any of them is absent.
func (r scrapeRequest) required() (username, password, whatsapp string, ok bool) {
	fields := [3]string{}
	for i, raw := range []json.RawMessage{r.Username, r.Password, r.WhatsApp} {
		v, present := fieldText(raw)
		if !present {
			return "", "", "", false
		}
		fields[i] = v
	}
	return fields[0], fields[1], fields[2], true
}

func fieldText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	return string(raw), true
}

type scrapeResponse struct {
	Message          string             `json:"message"`
	Data             *attendance.Report `json:"data"`
	WhatsAppSuccess  bool               `json:"whatsappSuccess"`
	WhatsAppError    string             `json:"whatsappError,omitempty"`
	OptInInstruction string             `json:"optInInstruction"`
}

// Scrape logs into the portal, sends the formatted report over WhatsApp and
// returns the scraped data. Delivery failure does not fail the request.
func (h *Handler) Scrape(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}
	username, password, whatsapp, ok := req.required()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}

	started := time.Now()
	report, err := h.generator.Generate(c.Request.Context(), attendance.Credentials{
		Username: username,
		Password: password,
	})
	metrics.ScrapeDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.Scrapes.WithLabelValues("failure").Inc()
		logger.Error().Err(err).Str("username", username).Msg("[scrape] report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.Scrapes.WithLabelValues("success").Inc()
	if report.Subjects == nil {
		report.Subjects = []attendance.Subject{}
	}

	body := attendance.Format(*report) + h.optIn
	res := h.sender.Send(c.Request.Context(), whatsapp, body)
	if !res.Success {
		logger.Warn().Str("error", res.Error).Msg("[scrape] whatsapp delivery failed")
	}

	c.JSON(http.StatusOK, scrapeResponse{
		Message:          msgReportSent,
		Data:             report,
		WhatsAppSuccess:  res.Success,
		WhatsAppError:    res.Error,
		OptInInstruction: h.optIn,
	})
}
