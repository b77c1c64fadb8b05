package provider

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SearchQuery describes the watched route for one poll cycle.
type SearchQuery struct {
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	Cabin       string
	Sources     []string
	PageSize    int
}

func (q SearchQuery) values(skip int, cursor string) url.Values {
	v := url.Values{}
	v.Set("origin_airport", q.Origin)
	v.Set("destination_airport", q.Destination)
	v.Set("start_date", q.StartDate)
	v.Set("end_date", q.EndDate)
	if q.Cabin != "" {
		v.Set("cabin", strings.ToLower(q.Cabin))
	}
	if len(q.Sources) > 0 {
		v.Set("sources", strings.Join(q.Sources, ","))
	}
	if q.PageSize > 0 {
		v.Set("take", strconv.Itoa(q.PageSize))
	}
	if skip > 0 {
		v.Set("skip", strconv.Itoa(skip))
	}
	if cursor != "" {
		v.Set("cursor", cursor)
	}
	return v
}

// FetchFunc retrieves one page for the given query parameters.
type FetchFunc func(ctx context.Context, query url.Values) (*Page, error)

// SearchResult aggregates all pages gathered during one cycle.
type SearchResult struct {
	Records []Availability
	Pages   int
	Partial bool
	Err     error
}

// Paginator walks the skip/cursor pagination protocol until the
// provider signals completion. Restartable per cycle, not across
// cycles; pagination cursors do not survive the provider's cache.
type Paginator struct {
	fetch  FetchFunc
	logger zerolog.Logger
}

// NewPaginator constructs a paginator over the given fetch function.
func NewPaginator(fetch FetchFunc, logger zerolog.Logger) *Paginator {
	return &Paginator{
		fetch:  fetch,
		logger: logger.With().Str("component", "paginator").Logger(),
	}
}

// Run gathers every page for the query. Records are returned in the
// order pages were received. If a page fails with *TransientError the
// walk stops and the records gathered so far are returned with
// Partial set; any other error aborts the walk entirely.
func (p *Paginator) Run(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	result := &SearchResult{}

	skip := 0
	cursor := ""
	for {
		page, err := p.fetch(ctx, q.values(skip, cursor))
		if err != nil {
			var transient *TransientError
			if errors.As(err, &transient) {
				p.logger.Warn().Err(err).
					Int("pages", result.Pages).
					Int("records", len(result.Records)).
					Msg("pagination truncated after transient failure")
				result.Partial = true
				result.Err = err
				return result, nil
			}
			return nil, err
		}

		result.Pages++
		result.Records = append(result.Records, page.Records...)

		if !page.HasMore || len(page.Records) == 0 {
			return result, nil
		}

		skip += len(page.Records)
		cursor = page.Cursor
	}
}

// Search runs a full paginated search through the client.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	fetch := func(ctx context.Context, query url.Values) (*Page, error) {
		return c.Fetch(ctx, searchPath, query)
	}
	return NewPaginator(fetch, c.logger).Run(ctx, q)
}
