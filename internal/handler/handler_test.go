package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendbot/internal/attendance"
	"attendbot/internal/messaging"
)

type spyGenerator struct {
	calls  int
	creds  attendance.Credentials
	report *attendance.Report
	err    error
}

func (g *spyGenerator) Generate(_ context.Context, creds attendance.Credentials) (*attendance.Report, error) {
	g.calls++
	g.creds = creds
	return g.report, g.err
}

type spySender struct {
	calls  int
	to     string
	body   string
	result messaging.Result
}

func (s *spySender) Send(_ context.Context, to, body string) messaging.Result {
	s.calls++
	s.to = to
	s.body = body
	return s.result
}

const optIn = "\n\n📢 Send the code \"join-test\" to whatsapp:+14155238886 to opt-in."

func newTestRouter(t *testing.T, gen *spyGenerator, sender *spySender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	r := gin.New()
	Register(r, New(gen, sender, optIn, nil), dir)
	return r
}

func postScrape(r *gin.Engine, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleReport() *attendance.Report {
	return &attendance.Report{
		TotalPercentage: "82%",
		Subjects: []attendance.Subject{
			{Name: "Math", TimeSlot: "09:00 - 10:00", Faculty: "Dr. A", Status: attendance.StatusPresent},
		},
	}
}

func TestScrapeStatus(t *testing.T) {
	r := newTestRouter(t, &spyGenerator{}, &spySender{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scrape-status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"Server running and healthy"}`, w.Body.String())
}

func TestHealthzWithoutRedis(t *testing.T) {
	r := newTestRouter(t, &spyGenerator{}, &spySender{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsExposed(t *testing.T) {
	r := newTestRouter(t, &spyGenerator{err: errors.New("boom")}, &spySender{})
	postScrape(r, map[string]string{"username": "u", "password": "p", "whatsapp": "+1"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `attendbot_scrapes_total{outcome="failure"}`)
}

func TestScrapeMissingFields(t *testing.T) {
	cases := map[string]any{
		"no username":    map[string]string{"password": "p", "whatsapp": "+1"},
		"no password":    map[string]string{"username": "u", "whatsapp": "+1"},
		"no whatsapp":    map[string]string{"username": "u", "password": "p"},
		"empty username": map[string]string{"username": "", "password": "p", "whatsapp": "+1"},
		"empty whatsapp": map[string]string{"username": "u", "password": "p", "whatsapp": ""},
		"only userId":    map[string]string{"userId": "42"},
		"empty object":   map[string]string{},
		"not json":       "username=u&password=p",
		"empty body":     "",
		"null whatsapp":  `{"username":"u","password":"p","whatsapp":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &spyGenerator{report: sampleReport()}
			sender := &spySender{}
			r := newTestRouter(t, gen, sender)

			w := postScrape(r, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Please fill all fields."}`, w.Body.String())
			assert.Zero(t, gen.calls, "generator must not run")
			assert.Zero(t, sender.calls, "sender must not run")
		})
	}
}

func TestScrapeAcceptsAnyPresentFields(t *testing.T) {
	cases := []struct {
		body         any
		wantUsername string
		wantTo       string
	}{
		{map[string]string{"username": " ", "password": " ", "whatsapp": " "}, " ", " "},
		{map[string]string{"username": "21881A0501", "password": "p@ss w0rd!", "whatsapp": "not-a-number"}, "21881A0501", "not-a-number"},
		{`{"username":"u","password":"p","whatsapp":15551234567}`, "u", "15551234567"},
		{`{"username":21881,"password":true,"whatsapp":"+15551234567"}`, "21881", "+15551234567"},
	}
	for _, tc := range cases {
		gen := &spyGenerator{report: sampleReport()}
		sender := &spySender{result: messaging.Result{Success: true}}
		r := newTestRouter(t, gen, sender)

		w := postScrape(r, tc.body)
		assert.Equal(t, http.StatusOK, w.Code, "%v", tc.body)
		assert.Equal(t, 1, gen.calls)
		assert.Equal(t, tc.wantUsername, gen.creds.Username)
		assert.Equal(t, tc.wantTo, sender.to)
	}
}

func TestScrapeGeneratorFailure(t *testing.T) {
	gen := &spyGenerator{err: errors.New("timed out after 10s waiting for attendance link")}
	sender := &spySender{}
	r := newTestRouter(t, gen, sender)

	w := postScrape(r, map[string]string{"username": "u", "password": "p", "whatsapp": "+15551234567"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"timed out after 10s waiting for attendance link"}`, w.Body.String())
	assert.Zero(t, sender.calls)
}

func TestScrapeSendFailureStillOK(t *testing.T) {
	gen := &spyGenerator{report: sampleReport()}
	sender := &spySender{result: messaging.Result{Success: false, Error: messaging.ErrNotConfigured}}
	r := newTestRouter(t, gen, sender)

	w := postScrape(r, map[string]string{"username": "u", "password": "p", "whatsapp": "+15551234567"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data             attendance.Report `json:"data"`
		WhatsAppSuccess  bool              `json:"whatsappSuccess"`
		WhatsAppError    string            `json:"whatsappError"`
		OptInInstruction string            `json:"optInInstruction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.WhatsAppSuccess)
	assert.Equal(t, messaging.ErrNotConfigured, resp.WhatsAppError)
	assert.Equal(t, *sampleReport(), resp.Data)
	assert.Equal(t, optIn, resp.OptInInstruction)
	assert.Equal(t, 1, sender.calls)
}

func TestScrapeEndToEnd(t *testing.T) {
	gen := &spyGenerator{report: sampleReport()}
	sender := &spySender{result: messaging.Result{Success: true}}
	r := newTestRouter(t, gen, sender)

	w := postScrape(r, map[string]string{
		"userId":   "ignored",
		"username": "u",
		"password": "p",
		"whatsapp": "+15551234567",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "82%", data["total_percentage"])
	assert.Equal(t, true, resp["whatsappSuccess"])
	assert.Equal(t, optIn, resp["optInInstruction"])
	assert.NotEmpty(t, resp["message"])
	assert.NotContains(t, resp, "whatsappError")

	assert.Equal(t, attendance.Credentials{Username: "u", Password: "p"}, gen.creds)
	assert.Equal(t, "+15551234567", sender.to)
	assert.Contains(t, sender.body, "- Math: ✅ Present")
	assert.Contains(t, sender.body, "Total Attendance: *82%*")
	assert.Equal(t, attendance.Format(*sampleReport())+optIn, sender.body)
}

func TestScrapeEmptySubjectsSerialiseAsList(t *testing.T) {
	gen := &spyGenerator{report: &attendance.Report{TotalPercentage: attendance.TotalUnavailable}}
	r := newTestRouter(t, gen, &spySender{result: messaging.Result{Success: true}})

	w := postScrape(r, map[string]string{"username": "u", "password": "p", "whatsapp": "+1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subjects":[]`)
	assert.Contains(t, w.Body.String(), `"total_percentage":"unavailable"`)
}

func TestScrapeMiddlewareRunsFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &spyGenerator{report: sampleReport()}
	r := gin.New()
	Register(r, New(gen, &spySender{}, optIn, nil), t.TempDir(), func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
	})

	w := postScrape(r, map[string]string{"username": "u", "password": "p", "whatsapp": "+1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, gen.calls)
}

func TestSPAFallback(t *testing.T) {
	r := newTestRouter(t, &spyGenerator{}, &spySender{})

	cases := []struct {
		path string
		want string
	}{
		{"/", "<html>app</html>"},
		{"/dashboard/report", "<html>app</html>"},
		{"/assets/app.js", "console.log(1)"},
		{"/assets/missing.js", "<html>app</html>"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.Equal(t, tc.want, w.Body.String(), tc.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil))
	assert.NotContains(t, w.Body.String(), "root:")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/anything", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
