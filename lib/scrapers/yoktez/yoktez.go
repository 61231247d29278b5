// Package yoktez scrapes the YÖK National Thesis Center, a portal with no
// documented API, bot-hardened endpoints and markup that drifts without
// notice. All requests funnel through one rate-limited, cookie-carrying
// client; parsing degrades to partial records instead of failing when the
// portal's structure changes.
package yoktez

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"yoktez-backend/lib/pagecache"
	"yoktez-backend/lib/ratelimit"
	"yoktez-backend/lib/restyutil"
	"yoktez-backend/lib/retry"
	"yoktez-backend/lib/telemetry"
	"yoktez-backend/lib/timezone"
	"yoktez-backend/lib/ttlcache"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/yoktez")

var (
	// ErrTransport marks connection, timeout and non-2xx failures.
	ErrTransport = errors.New("portal transport failure")
	// ErrSession means the warm-up navigation could not acquire cookies.
	ErrSession = errors.New("could not establish portal session")
	// ErrNotFound means the portal answered and reported no such record.
	ErrNotFound = errors.New("no matching thesis record")
)

const (
	searchPath = "/UlusalTezMerkezi/tarama.jsp"
	detailPath = "/UlusalTezMerkezi/tezDetay.jsp"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// ModalFetcher is the browser-automation hook for detail retrieval: it
// drives a search for the given thesis id, clicks the result row and
// returns the modal dialog's inner html. Implemented by the browser
// subpackage; nil means the client is running http-only.
type ModalFetcher interface {
	FetchModal(ctx context.Context, thesisId string) (string, error)
	Close(ctx context.Context) error
}

type Options struct {
	// portal base url, e.g. https://tez.yok.gov.tr
	BaseUrl string
	// minimum spacing between portal requests
	RateDelay time.Duration
	// expiry for cached search/detail results
	CacheTTL time.Duration
	// per-request timeout
	Timeout time.Duration
	// directory for the raw-page cache; empty disables persistence
	PageCacheDir string
	// optional browser-automation session for the modal fallback
	Modal ModalFetcher
	// overrides retry.DefaultPolicy when MaxAttempts > 0
	Retry retry.Policy
	// when set, every raw http transaction is dumped here for parser
	// debugging
	DebugDumpDir string
}

// Client is the scraper instance. One Client owns one portal session, one
// rate limiter and one set of caches; construct it once and share it.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	limiter *ratelimit.Limiter
	retry   retry.Policy
	modal   ModalFetcher

	searches *ttlcache.Cache[[]ThesisSummary]
	details  *ttlcache.Cache[ThesisDetail]
	pages    *pagecache.Cache
	cacheTTL time.Duration

	sessionMu sync.Mutex
	warmedUp  bool
	closed    bool
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://tez.yok.gov.tr"
	}
	if opts.RateDelay <= 0 {
		opts.RateDelay = 2 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultPolicy()
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetHeader("referer", opts.BaseUrl+searchPath)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "scrapers/yoktez/http")
	if opts.DebugDumpDir != "" {
		restyutil.DumpTransactions(client, restyutil.NewFilesystemOutput(opts.DebugDumpDir))
	}

	c := &Client{
		baseUrl:  baseUrl,
		http:     client,
		limiter:  ratelimit.New(opts.RateDelay),
		retry:    opts.Retry,
		modal:    opts.Modal,
		searches: ttlcache.New[[]ThesisSummary](opts.CacheTTL),
		details:  ttlcache.New[ThesisDetail](opts.CacheTTL),
		cacheTTL: opts.CacheTTL,
	}

	if opts.PageCacheDir != "" {
		pages, err := pagecache.Open(opts.PageCacheDir, opts.BaseUrl)
		if err != nil {
			return nil, fmt.Errorf("open page cache: %w", err)
		}
		c.pages = pages
	}

	return c, nil
}

// ensureSession performs the warm-up navigation to the search page on
// first use, acquiring the cookies the portal requires before it will
// answer form posts. Double-checked under the lock so concurrent first
// callers do not warm up twice.
func (c *Client) ensureSession(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: client is closed", ErrSession)
	}
	if c.warmedUp {
		return nil
	}

	ctx, span := tracer.Start(ctx, "ensureSession")
	defer span.End()

	_, err := retry.Do(ctx, c.retry, func() (struct{}, error) {
		res, err := c.http.R().SetContext(ctx).Get(searchPath)
		if err != nil {
			return struct{}{}, err
		}
		if retry.RetryableStatus(res.StatusCode()) {
			return struct{}{}, fmt.Errorf("warm-up returned status %d", res.StatusCode())
		}
		return struct{}{}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session warm-up failed")
		return fmt.Errorf("%w: %s", ErrSession, err)
	}

	slog.DebugContext(ctx, "portal session established")
	c.warmedUp = true
	return nil
}

// Close releases the http client, page cache and browser session.
// Idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.warmedUp = false

	var errs []error
	if c.modal != nil {
		if err := c.modal.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.pages != nil {
		if err := c.pages.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.http.GetClient().CloseIdleConnections()
	c.searches.Clear()
	c.details.Clear()
	return errors.Join(errs...)
}

// fetch issues one rate-limited request against the portal, consulting
// the raw-page cache first. A nil form means GET, otherwise a form POST.
func (c *Client) fetch(ctx context.Context, path string, query url.Values, form url.Values) ([]byte, error) {
	cacheForm := form
	if cacheForm == nil {
		cacheForm = query
	}
	if c.pages != nil {
		contents, err := c.pages.Get(ctx, path, cacheForm)
		if err == nil {
			return contents, nil
		}
		if !errors.Is(err, pagecache.ErrNotCached) {
			slog.WarnContext(ctx, "page cache read failed", "err", err)
		}
	}

	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransport, err)
	}

	body, err := retry.Do(ctx, c.retry, func() ([]byte, error) {
		req := c.http.R().SetContext(ctx)
		if len(query) > 0 {
			req.SetQueryParamsFromValues(query)
		}

		var res *resty.Response
		var err error
		if form != nil {
			res, err = req.SetFormDataFromValues(form).Post(path)
		} else {
			res, err = req.Get(path)
		}
		if err != nil {
			return nil, err
		}
		if retry.RetryableStatus(res.StatusCode()) {
			return nil, fmt.Errorf("portal returned status %d", res.StatusCode())
		}
		if res.StatusCode() != 200 {
			return nil, retry.Permanent(fmt.Errorf("portal returned status %d", res.StatusCode()))
		}
		return res.Body(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransport, err)
	}

	if c.pages != nil {
		err := c.pages.Set(ctx, path, cacheForm, body, c.cacheTTL)
		if err != nil {
			slog.WarnContext(ctx, "page cache write failed", "err", err)
		}
	}
	return body, nil
}

// Search runs one logical query against the portal and returns normalized
// summaries. Results are cached; an empty slice is a valid answer and is
// never nil-vs-empty ambiguous.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]ThesisSummary, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("term", query.Term),
		attribute.String("field", string(query.Field)),
	)

	key := query.CacheKey()
	if cached, ok := c.searches.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return slices.Clone(cached), nil
	}

	body, err := c.fetch(ctx, searchPath, nil, buildSearchForm(query))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search fetch failed")
		return nil, err
	}

	results := parseResults(string(body), query.MaxResults)
	span.SetAttributes(attribute.Int("result_count", len(results)))

	if len(results) > 0 {
		// the cache keeps its own copy; callers own what they get back
		c.searches.Set(key, slices.Clone(results))
	}
	return results, nil
}

// AdvancedResult carries the normalized rows together with the portal's
// own total-hit count, which can exceed len(Results) when the query
// matches more than the page embeds.
type AdvancedResult struct {
	Results    []ThesisSummary
	TotalFound int
}

// AdvancedSearch runs the advanced form's keyword/operator chain.
func (c *Client) AdvancedSearch(ctx context.Context, query AdvancedQuery) (AdvancedResult, error) {
	ctx, span := tracer.Start(ctx, "AdvancedSearch")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", query.Keyword1))

	body, err := c.fetch(ctx, searchPath, nil, buildAdvancedForm(query))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "advanced search fetch failed")
		return AdvancedResult{}, err
	}

	html := string(body)
	out := AdvancedResult{
		Results:    parseResults(html, query.MaxResults),
		TotalFound: totalHits(html),
	}
	if out.TotalFound == 0 {
		out.TotalFound = len(out.Results)
	}
	span.SetAttributes(
		attribute.Int("result_count", len(out.Results)),
		attribute.Int("total_found", out.TotalFound),
	)
	return out, nil
}

// recent results churn daily, so they expire faster than searches
const recentTTL = 10 * time.Minute

// GetRecent returns theses added to the registry within the last `days`
// days.
func (c *Client) GetRecent(ctx context.Context, days int, limit int) ([]ThesisSummary, error) {
	ctx, span := tracer.Start(ctx, "GetRecent")
	defer span.End()
	span.SetAttributes(attribute.Int("days", days))

	if days <= 0 {
		days = 15
	}

	// the tab's contents roll over at registry-local midnight, so the key
	// carries the Istanbul day the request falls into
	dayStart, _ := timezone.GetDayBounds(timezone.Now())
	key := cacheKey("recent", fmt.Sprint(days), fmt.Sprint(limit), dayStart.Format(time.DateOnly))
	if cached, ok := c.searches.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return slices.Clone(cached), nil
	}

	body, err := c.fetch(ctx, searchPath, nil, buildRecentForm(days))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recent fetch failed")
		return nil, err
	}

	results := parseResults(string(body), limit)
	if len(results) > 0 {
		c.searches.SetTTL(key, slices.Clone(results), recentTTL)
	}
	return results, nil
}

// GetDetails resolves one thesis id to a full record through a fallback
// chain: direct detail url, then id-scoped search (clicked through to the
// modal when a browser session is attached). Transport failures advance
// the chain instead of aborting it; only an explicit empty answer from
// the portal surfaces as ErrNotFound, and total exhaustion yields the
// minimal placeholder record with a nil error.
func (c *Client) GetDetails(ctx context.Context, thesisId string) (ThesisDetail, error) {
	ctx, span := tracer.Start(ctx, "GetDetails")
	defer span.End()
	span.SetAttributes(attribute.String("thesis_id", thesisId))

	key := cacheKey("detail", thesisId)
	if cached, ok := c.details.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	detail, err := c.directFetch(ctx, thesisId)
	if err == nil {
		c.details.Set(key, detail)
		return detail, nil
	}
	slog.DebugContext(ctx, "direct detail fetch failed, falling back to search", "thesis_id", thesisId, "err", err)

	detail, err = c.searchFallback(ctx, thesisId)
	if err == nil {
		c.details.Set(key, detail)
		return detail, nil
	}
	if errors.Is(err, ErrNotFound) {
		span.SetStatus(codes.Error, "thesis not found")
		return minimalDetail(thesisId), err
	}

	span.RecordError(err)
	slog.WarnContext(ctx, "all detail strategies exhausted", "thesis_id", thesisId, "err", err)
	return minimalDetail(thesisId), nil
}

// directFetch tries the detail url with the id as a query parameter. The
// portal frequently rejects these with its generic error page (status
// 200, marker text in the body).
func (c *Client) directFetch(ctx context.Context, thesisId string) (ThesisDetail, error) {
	ctx, span := tracer.Start(ctx, "directFetch")
	defer span.End()

	query := url.Values{}
	query.Set("id", thesisId)

	body, err := c.fetch(ctx, detailPath, query, nil)
	if err != nil {
		span.RecordError(err)
		return ThesisDetail{}, err
	}

	html := string(body)
	if containsMarker(html) {
		span.SetStatus(codes.Error, "portal rejected direct detail url")
		return ThesisDetail{}, fmt.Errorf("portal rejected direct detail url for %s", thesisId)
	}

	detail, ok := parseDetailPage(html, thesisId)
	if !ok {
		span.SetStatus(codes.Error, "no known detail structure matched")
		return ThesisDetail{}, fmt.Errorf("no known detail structure matched for %s", thesisId)
	}
	return detail, nil
}

// searchFallback searches the id field for the thesis, then either clicks
// through to the modal (browser session attached) or upgrades the search
// row itself to a detail record (http-only).
func (c *Client) searchFallback(ctx context.Context, thesisId string) (ThesisDetail, error) {
	ctx, span := tracer.Start(ctx, "searchFallback")
	defer span.End()

	rows, err := c.Search(ctx, SearchQuery{
		Term:       thesisId,
		Field:      FieldId,
		MaxResults: 5,
	})
	if err != nil {
		span.RecordError(err)
		return ThesisDetail{}, err
	}

	var row *ThesisSummary
	for i := range rows {
		if rows[i].Id == thesisId {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return ThesisDetail{}, fmt.Errorf("%w: id %s", ErrNotFound, thesisId)
	}

	if c.modal != nil {
		modalHtml, err := c.modal.FetchModal(ctx, thesisId)
		if err != nil {
			slog.WarnContext(ctx, "modal fetch failed, keeping search row", "thesis_id", thesisId, "err", err)
			span.RecordError(err)
		} else if detail, ok := parseModalContent(modalHtml, thesisId); ok {
			mergeSummary(&detail, *row)
			return detail, nil
		}
	}

	return ThesisDetail{ThesisSummary: *row}, nil
}

// mergeSummary fills detail fields the modal left empty from the search
// row that located the thesis.
func mergeSummary(detail *ThesisDetail, row ThesisSummary) {
	if detail.Title == "" {
		detail.Title = row.Title
	}
	if detail.Author == "" {
		detail.Author = row.Author
	}
	if detail.Year == 0 {
		detail.Year = row.Year
	}
	if detail.ThesisType == "" {
		detail.ThesisType = row.ThesisType
	}
	if detail.University == "" {
		detail.University = row.University
	}
	if detail.Language == "" {
		detail.Language = row.Language
	}
	if detail.Subject == "" {
		detail.Subject = row.Subject
	}
}

// ClearCaches drops all cached results, leaving the session alive.
func (c *Client) ClearCaches() {
	c.searches.Clear()
	c.details.Clear()
}

func containsMarker(html string) bool {
	return strings.Contains(html, errorPageMarker)
}
