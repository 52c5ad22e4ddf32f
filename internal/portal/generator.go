// Package portal drives a headless browser through the student portal and
// turns the attendance view into an attendance.Report.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"attendbot/internal/attendance"
)

var tracer = otel.Tracer("attendbot/portal")

// Generator produces an attendance report for one set of credentials. A nil
// error means the report is complete; there is no partial result.
type Generator interface {
	Generate(ctx context.Context, creds attendance.Credentials) (*attendance.Report, error)
}

// Options configures the Chrome generator.
type Options struct {
	LoginURL string
	// ExecPath is the Chrome binary; empty lets chromedp look it up.
	ExecPath string
	// RemoteURL is the DevTools websocket of an already running browser.
	RemoteURL string
	// Timeout bounds a whole scrape, on top of the per-step timeouts.
	Timeout time.Duration
}

// Chrome is the production Generator.
type Chrome struct {
	opts Options
}

// NewChrome creates a generator. Each Generate call opens its own browser.
func NewChrome(opts Options) *Chrome {
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Minute
	}
	return &Chrome{opts: opts}
}

// Generate runs the full login and scrape sequence. The caller's
// cancellation is not propagated: once started, a scrape runs until it
// finishes or one of its timeouts fires.
func (c *Chrome) Generate(ctx context.Context, creds attendance.Credentials) (report *attendance.Report, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	logger := log.With().Str("username", creds.Username).Logger()
	started := time.Now()

	sess, err := c.openSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer sess.release()

	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("scrape aborted: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scrape failed")
			logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("[portal] scrape failed")
		}
	}()

	report, err = c.scrape(sess.ctx, creds)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("subjects", len(report.Subjects)))
	logger.Info().
		Int("subjects", len(report.Subjects)).
		Bool("total", report.HasTotal()).
		Dur("elapsed", time.Since(started)).
		Msg("[portal] scrape finished")
	return report, nil
}

func (c *Chrome) scrape(ctx context.Context, creds attendance.Credentials) (*attendance.Report, error) {
	if err := c.login(ctx, creds); err != nil {
		return nil, err
	}

	if dismissPopup(ctx) {
		log.Debug().Msg("[portal] dismissed interstitial popup")
	}
	settle(ctx, pageSettled, afterPopupSettle)

	if err := openAttendance(ctx); err != nil {
		return nil, err
	}
	settle(ctx, attendanceSettled, afterAttendanceSettle)

	total, ok := readTotal(ctx)
	if !ok {
		total = attendance.TotalUnavailable
	}

	subjects, err := readSubjects(ctx)
	if err != nil {
		return nil, err
	}
	return &attendance.Report{TotalPercentage: total, Subjects: subjects}, nil
}

func (c *Chrome) login(ctx context.Context, creds attendance.Credentials) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	if err := runStep(ctx, "login page", loginFormTimeout, chromedp.Navigate(c.opts.LoginURL)); err != nil {
		return err
	}

	for _, el := range []struct{ name, sel string }{
		{"username field", usernameInput},
		{"password field", passwordInput},
		{"login button", loginButton},
	} {
		if err := runStep(ctx, el.name, loginFormTimeout, chromedp.WaitVisible(el.sel, chromedp.ByQuery)); err != nil {
			span.SetStatus(codes.Error, "login form not visible")
			return err
		}
	}

	err := runStep(ctx, "login form", loginFormTimeout,
		chromedp.SendKeys(usernameInput, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(passwordInput, creds.Password, chromedp.ByQuery),
		chromedp.Click(loginButton, chromedp.ByQuery),
	)
	if err != nil {
		span.SetStatus(codes.Error, "could not submit login form")
		return err
	}

	settle(ctx, loginSettled, afterLoginSettle)
	return nil
}

// dismissPopup closes the post-login interstitial if it shows up.
func dismissPopup(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "dismissPopup")
	defer span.End()

	err := runStep(ctx, "popup close button", popupTimeout,
		chromedp.WaitVisible(popupClose, chromedp.ByQuery),
		chromedp.Click(popupClose, chromedp.ByQuery),
	)
	span.SetAttributes(attribute.Bool("dismissed", err == nil))
	return err == nil
}

func openAttendance(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "openAttendance")
	defer span.End()

	err := runStep(ctx, "attendance link", attendanceTimeout,
		chromedp.WaitVisible(attendanceNav, chromedp.BySearch),
		chromedp.Click(attendanceNav, chromedp.BySearch),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendance link not found")
	}
	return err
}

// readTotal returns the overall percentage when the portal shows one.
func readTotal(ctx context.Context) (string, bool) {
	ctx, span := tracer.Start(ctx, "readTotal")
	defer span.End()

	var text string
	err := runStep(ctx, "attendance percentage", totalTimeout,
		chromedp.WaitVisible(totalCount, chromedp.ByQuery),
		chromedp.Text(totalCount, &text, chromedp.ByQuery),
	)
	text = normalizeText(text)
	if err != nil || text == "" {
		span.SetAttributes(attribute.Bool("found", false))
		return "", false
	}
	span.SetAttributes(attribute.String("total", text))
	return text, true
}

func readSubjects(ctx context.Context) ([]attendance.Subject, error) {
	ctx, span := tracer.Start(ctx, "readSubjects")
	defer span.End()

	var html string
	if err := runStep(ctx, "attendance page", snapshotTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	subjects, err := ParseSubjects(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract subjects")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(subjects)))
	return subjects, nil
}

// runStep runs actions under their own timeout and names the element that
// was being waited for when it expires.
func runStep(ctx context.Context, element string, timeout time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(stepCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("scrape timed out waiting for %s: %w", element, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ElementTimeoutError{Element: element, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s: %w", element, err)
}

// settle polls expr until it holds or bound elapses. Reaching the bound is
// not an error; the next step has its own wait.
func settle(ctx context.Context, expr string, bound time.Duration) bool {
	deadline := time.Now().Add(bound)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			return false
		}

		var ready bool
		stepCtx, cancel := context.WithTimeout(ctx, remaining)
		err := chromedp.Run(stepCtx, chromedp.Poll(expr, &ready,
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(remaining),
		))
		cancel()
		if err == nil {
			return true
		}

		// The execution context goes away while a navigation is in flight.
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
}
