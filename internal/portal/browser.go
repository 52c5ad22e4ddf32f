package portal

import (
	"context"

	"github.com/chromedp/chromedp"

	"attendbot/internal/metrics"
)

// allocatorOptions are the Chrome flags for running inside a container.
func allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// session is one isolated browser. release must be called on every path.
type session struct {
	ctx     context.Context
	release func()
}

func (c *Chrome) openSession(ctx context.Context) (*session, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if c.opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, c.opts.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, allocatorOptions(c.opts.ExecPath)...)
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &session{
		ctx: browserCtx,
		release: func() {
			cancelBrowser()
			cancelAlloc()
			metrics.BrowserSessions.Dec()
		},
	}
	metrics.BrowserSessions.Inc()

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}
