// Package bridge orchestrates a single request against the remote
// calendar server: parse the identifier, resolve discovery data through a
// TTL cache, run the protocol query under a timeout budget, filter and
// re-serialize the result. Failures never escape; they become a uniform
// JSON error response.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyp0633/calbridge/caldav"
	"github.com/cyp0633/calbridge/davclient"
	"github.com/cyp0633/calbridge/uri"
	"github.com/cyp0633/calbridge/vcal"
	"github.com/google/uuid"
)

var (
	// ErrCalendarNotFound marks a calendarId absent from discovery.
	ErrCalendarNotFound = errors.New("calendar not found")
	// ErrUpstreamTimeout marks a query that exceeded its budget.
	ErrUpstreamTimeout = errors.New("upstream query timed out")
	// ErrUpstreamFailure wraps network or protocol errors from the
	// collaborator.
	ErrUpstreamFailure = errors.New("upstream query failed")
)

// Config holds the bridge's tunables.
type Config struct {
	Timeout  time.Duration // per-request budget for the calendar query
	CacheTTL time.Duration // discovery cache staleness
	Logger   *slog.Logger
}

// DefaultConfig returns the standard tunables: a 10 second query budget
// and a 5 minute discovery TTL.
func DefaultConfig() Config {
	return Config{
		Timeout:  10 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}

// Bridge resolves caldav:// identifiers to calendar data. Safe for
// concurrent use; the discovery cache is the only shared mutable state.
type Bridge struct {
	client     davclient.Client
	serverRoot string
	username   string
	cache      *discoveryCache
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a bridge over the given collaborator. serverRoot is the
// remote server's root resource; username is whoever the client
// authenticates as (empty means anonymous) and only keys the cache.
func New(client davclient.Client, serverRoot, username string, cfg Config) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultConfig().CacheTTL
	}
	return &Bridge{
		client:     client,
		serverRoot: serverRoot,
		username:   username,
		cache:      newDiscoveryCache(ttl),
		timeout:    timeout,
		logger:     logger,
	}
}

// Handle resolves one identifier. Every failure, including panics from
// below, is converted into a 400 JSON payload; the caller never sees an
// error.
func (b *Bridge) Handle(ctx context.Context, identifier string) (resp Response) {
	logger := b.logger.With("request_id", uuid.NewString(), "identifier", identifier)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("request panicked", "panic", r)
			resp = errorResponse(fmt.Errorf("internal error: %v", r), time.Now())
		}
	}()

	resp, err := b.handle(ctx, identifier, logger)
	if err != nil {
		logger.Warn("request failed", "error", err)
		return errorResponse(err, time.Now())
	}
	return resp
}

func (b *Bridge) handle(ctx context.Context, identifier string, logger *slog.Logger) (Response, error) {
	parsed, err := uri.Parse(identifier)
	if err != nil {
		return Response{}, err
	}
	logger.Debug("identifier parsed", "template", parsed.TemplateName)

	discovery, err := b.discovery(ctx, logger)
	if err != nil {
		return Response{}, err
	}

	if parsed.IsMetadata() {
		if parsed.TemplateName != "metadata-calendars" {
			return Response{}, fmt.Errorf("%w: %s", uri.ErrUnknownTemplate, parsed.TemplateName)
		}
		return metadataResponse(discovery)
	}
	return b.handleCalendar(ctx, parsed, discovery, logger)
}

// discovery returns cached discovery data, refreshing it on absence or
// expiry. A racing duplicate refresh is tolerated; the entry is replaced
// wholesale either way.
func (b *Bridge) discovery(ctx context.Context, logger *slog.Logger) (*davclient.Discovery, error) {
	key := b.cacheKey()
	if cached := b.cache.get(key); cached.IsPresent() {
		logger.Debug("discovery cache hit", "key", key)
		return cached.MustGet(), nil
	}

	logger.Debug("discovery cache miss, resolving", "key", key)
	discovery, err := davclient.Discover(ctx, b.client, b.serverRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	b.cache.put(key, discovery)
	return discovery, nil
}

func (b *Bridge) cacheKey() string {
	user := b.username
	if user == "" {
		user = "anonymous"
	}
	return b.serverRoot + "|" + user
}

func (b *Bridge) handleCalendar(ctx context.Context, parsed *uri.ParsedIdentifier, discovery *davclient.Discovery, logger *slog.Logger) (Response, error) {
	calendarID := parsed.Variables["calendarId"]
	collection, ok := findCalendar(discovery, calendarID)
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrCalendarNotFound, calendarID)
	}

	opts, filters, err := assembleQuery(parsed)
	if err != nil {
		return Response{}, err
	}

	results, err := b.queryWithTimeout(ctx, collection.Href, opts)
	if err != nil {
		return Response{}, err
	}

	document := combineCalendarData(results)
	if document == "" {
		document = vcal.EmptyDocument()
	}

	components := vcal.Parse(document)
	filtered := vcal.Apply(components, filters, logger)
	logger.Debug("calendar request complete",
		"calendar", collection.ID,
		"components", len(components),
		"after_filters", len(filtered),
		"uids", vcal.UIDs(filtered))

	return Response{
		Content:  vcal.Serialize(filtered),
		MimeType: parsed.Template.MimeType,
		Status:   http.StatusOK,
	}, nil
}

func findCalendar(discovery *davclient.Discovery, id string) (davclient.CalendarCollection, bool) {
	for _, cal := range discovery.Calendars {
		if cal.ID == id {
			return cal, true
		}
	}
	return davclient.CalendarCollection{}, false
}

// assembleQuery maps the parsed variables into the server-side query
// options and the client-side filter set. Only filters the identifier
// actually carries are applied later.
func assembleQuery(parsed *uri.ParsedIdentifier) (caldav.QueryOptions, vcal.FilterOptions, error) {
	params := parsed.FilterParams()
	opts := caldav.QueryOptions{
		Component:  parsed.Component(),
		Category:   params.Category,
		UID:        params.UID,
		Expression: params.Expression,
	}
	filters := vcal.FilterOptions{
		Category:   params.Category,
		UID:        params.UID,
		Expression: params.Expression,
	}

	start, end := parsed.TimeRange()
	if v, ok := start.Get(); ok {
		t, err := vcal.ParseTime(v)
		if err != nil {
			return opts, filters, fmt.Errorf("invalid start value %q: %w", v, err)
		}
		opts.Start = &t
		filters.Start = v
	}
	if v, ok := end.Get(); ok {
		t, err := vcal.ParseTime(v)
		if err != nil {
			return opts, filters, fmt.Errorf("invalid end value %q: %w", v, err)
		}
		opts.End = &t
		filters.End = v
	}
	return opts, filters, nil
}

// queryWithTimeout races the calendar query against a timer. The loser is
// cancelled through the query context and its result lands in a buffered
// channel, so an abandoned query can never touch a later response.
func (b *Bridge) queryWithTimeout(ctx context.Context, href string, opts caldav.QueryOptions) ([]caldav.ResourceResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type queryResult struct {
		results []caldav.ResourceResult
		err     error
	}
	done := make(chan queryResult, 1)
	go func() {
		results, err := b.client.CalendarQuery(queryCtx, href, caldav.DefaultQueryProps, opts.Filter())
		done <- queryResult{results: results, err: err}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			// A collaborator that observed the context deadline itself
			// is still a timeout, whichever side of the race woke first.
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, ErrUpstreamTimeout
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, res.err)
		}
		return res.results, nil
	case <-timer.C:
		return nil, ErrUpstreamTimeout
	}
}

func combineCalendarData(results []caldav.ResourceResult) string {
	var b strings.Builder
	for _, res := range results {
		if res.CalendarData == "" {
			continue
		}
		b.WriteString(res.CalendarData)
		if !strings.HasSuffix(res.CalendarData, "\n") {
			b.WriteString("\r\n")
		}
	}
	return b.String()
}
