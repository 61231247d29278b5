// Package browser drives a real Chrome instance against the thesis
// portal for the one flow plain http cannot reach: the result modal that
// opens only after clicking a row. One Session owns one long-lived
// browser; all page work funnels through a single worker goroutine
// because the browser has one tab's worth of state.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/yoktez/browser")

var ErrClosed = errors.New("browser session is closed")

const (
	searchPath = "/UlusalTezMerkezi/tarama.jsp"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// clears the flag automation-detection scripts probe first
	maskWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`
)

type Options struct {
	// portal base url, e.g. https://tez.yok.gov.tr
	BaseUrl string
	// run without a visible window; disable for local debugging
	Headless bool
	// bound on each navigate/click/wait step
	Timeout time.Duration
	// overrides the default browser user agent when non-empty
	UserAgent string
}

type request struct {
	ctx      context.Context
	thesisId string
	reply    chan response
}

type response struct {
	html string
	err  error
}

// Session is a live automated browser bound to one worker goroutine.
// Callers from any goroutine send work over the request channel and the
// worker answers on per-request reply channels, so concurrent callers
// never share browser state.
type Session struct {
	baseUrl  string
	timeout  time.Duration
	requests chan request

	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	done        chan struct{}
}

// Launch starts the browser with the portal's anti-automation checks
// masked: automation-controlled blink features disabled, the default
// automation switches removed and navigator.webdriver cleared on every
// new document.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Launch")
	defer span.End()

	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://tez.yok.gov.tr"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		baseUrl:     opts.BaseUrl,
		timeout:     opts.Timeout,
		requests:    make(chan request),
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		done:        make(chan struct{}),
	}

	// warm-up navigation both launches the process and acquires the
	// portal's cookies
	warmCtx, cancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()
	err := chromedp.Run(warmCtx,
		maskFingerprint(),
		chromedp.Navigate(opts.BaseUrl+searchPath),
	)
	if err != nil {
		cancelCtx()
		cancelAlloc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser warm-up failed")
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	go s.worker()
	return s, nil
}

func maskFingerprint() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(maskWebdriverScript).Do(ctx)
		return err
	})
}

// FetchModal searches the portal for the thesis id, clicks the matching
// row and returns the opened modal's inner html. Safe to call from any
// goroutine; requests are served one at a time in arrival order.
func (s *Session) FetchModal(ctx context.Context, thesisId string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchModal")
	defer span.End()
	span.SetAttributes(attribute.String("thesis_id", thesisId))

	req := request{ctx: ctx, thesisId: thesisId, reply: make(chan response, 1)}

	select {
	case s.requests <- req:
	case <-s.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.reply:
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, "modal fetch failed")
		}
		return res.html, res.err
	case <-s.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close terminates the worker and the browser process. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancelCtx()
		s.cancelAlloc()
	})
	return nil
}

func (s *Session) worker() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			html, err := s.fetchModal(req.ctx, req.thesisId)
			req.reply <- response{html: html, err: err}
		}
	}
}

// fetchModal runs on the worker goroutine only. The flow mirrors a human
// lookup: open the search page, switch to the detailed tab, type the id
// into TezNo, submit, click the result span, wait for the modal node.
func (s *Session) fetchModal(ctx context.Context, thesisId string) (string, error) {
	stepCtx, cancel := context.WithTimeout(s.browserCtx, s.timeout)
	defer cancel()
	go func() {
		// propagate caller cancellation into the browser step
		select {
		case <-ctx.Done():
			cancel()
		case <-stepCtx.Done():
		}
	}()

	rowSelector := fmt.Sprintf(`span[onclick*="tezDetay('%s'"]`, thesisId)

	var html string
	err := chromedp.Run(stepCtx,
		chromedp.Navigate(s.baseUrl+searchPath),
		chromedp.Click(`a[href='#tabs-1']`, chromedp.ByQuery),
		chromedp.WaitVisible(`input[name=TezNo]`, chromedp.ByQuery),
		chromedp.SetValue(`input[name=TezNo]`, thesisId, chromedp.ByQuery),
		chromedp.Click(`#tabs-1 input[type=submit]`, chromedp.ByQuery),
		chromedp.WaitVisible(rowSelector, chromedp.ByQuery),
		chromedp.Click(rowSelector, chromedp.ByQuery),
		chromedp.WaitVisible(`#dialog-modal`, chromedp.ByQuery),
		chromedp.InnerHTML(`#dialog-modal`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("modal flow for %s: %w", thesisId, err)
	}
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("modal for %s rendered empty", thesisId)
	}
	return html, nil
}
