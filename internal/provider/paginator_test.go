package provider

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func rec(id string) Availability {
	return Availability{ID: id}
}

func TestPaginatorWalksAllPages(t *testing.T) {
	pages := []*Page{
		{Records: []Availability{rec("a"), rec("b")}, HasMore: true, Cursor: "c1"},
		{Records: []Availability{rec("c")}, HasMore: true, Cursor: "c2"},
		{Records: []Availability{rec("d")}, HasMore: false},
	}

	var queries []url.Values
	call := 0
	fetch := func(ctx context.Context, query url.Values) (*Page, error) {
		queries = append(queries, query)
		page := pages[call]
		call++
		return page, nil
	}

	p := NewPaginator(fetch, noopLogger())
	result, err := p.Run(context.Background(), SearchQuery{Origin: "SFO", Destination: "NRT", PageSize: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Pages != 3 || result.Partial {
		t.Fatalf("unexpected result: %+v", result)
	}

	got := make([]string, 0, len(result.Records))
	for _, r := range result.Records {
		got = append(got, r.ID)
	}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("records out of order: got %v want %v", got, want)
		}
	}

	// Second page must carry the cursor and accumulated skip.
	if queries[1].Get("cursor") != "c1" || queries[1].Get("skip") != "2" {
		t.Fatalf("second query missing pagination params: %v", queries[1])
	}
	if queries[0].Get("cursor") != "" || queries[0].Get("skip") != "" {
		t.Fatalf("first query must not carry pagination params: %v", queries[0])
	}
}

func TestPaginatorStopsOnEmptyPage(t *testing.T) {
	call := 0
	fetch := func(ctx context.Context, query url.Values) (*Page, error) {
		call++
		if call == 1 {
			return &Page{Records: []Availability{rec("a")}, HasMore: true, Cursor: "c1"}, nil
		}
		// Provider claims more but returns nothing.
		return &Page{HasMore: true, Cursor: "c2"}, nil
	}

	p := NewPaginator(fetch, noopLogger())
	result, err := p.Run(context.Background(), SearchQuery{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if call != 2 {
		t.Fatalf("expected walk to stop on empty page, made %d calls", call)
	}
	if len(result.Records) != 1 {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
}

func TestPaginatorPartialOnTransientFailure(t *testing.T) {
	call := 0
	fetch := func(ctx context.Context, query url.Values) (*Page, error) {
		call++
		if call == 2 {
			return nil, &TransientError{Op: "search", Err: errors.New("connection reset")}
		}
		return &Page{Records: []Availability{rec("a"), rec("b")}, HasMore: true, Cursor: "c1"}, nil
	}

	p := NewPaginator(fetch, noopLogger())
	result, err := p.Run(context.Background(), SearchQuery{})
	if err != nil {
		t.Fatalf("transient failure must not abort the walk: %v", err)
	}

	if !result.Partial || result.Err == nil {
		t.Fatalf("expected partial result: %+v", result)
	}
	if len(result.Records) != 2 || result.Pages != 1 {
		t.Fatalf("gathered records must survive: %+v", result)
	}
}

func TestPaginatorAbortsOnClientError(t *testing.T) {
	fetch := func(ctx context.Context, query url.Values) (*Page, error) {
		return nil, &ClientError{StatusCode: 401, Message: "invalid key"}
	}

	p := NewPaginator(fetch, noopLogger())
	_, err := p.Run(context.Background(), SearchQuery{})

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected *ClientError to propagate, got %v", err)
	}
}
