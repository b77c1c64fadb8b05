package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
}

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchSetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Partner-Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}, "hasMore": false})
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	if _, err := c.Fetch(context.Background(), "search", nil); err != nil {
		t.Fatalf("Fetch 应成功: %v", err)
	}
	if gotAuth != "test-key" {
		t.Fatalf("expected Partner-Authorization header, got %q", gotAuth)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":    []map[string]any{{"ID": "rec-1"}},
			"hasMore": false,
		})
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	page, err := c.Fetch(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(page.Records) != 1 || page.Records[0].ID != "rec-1" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestFetchRetriesTooManyRequests(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}, "hasMore": false})
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	if _, err := c.Fetch(context.Background(), "search", nil); err != nil {
		t.Fatalf("429 应重试后成功: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetchClientErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad origin"})
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	_, err := c.Fetch(context.Background(), "search", nil)

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected *ClientError, got %v", err)
	}
	if clientErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", clientErr.StatusCode)
	}
	if clientErr.AuthFailure() {
		t.Fatal("400 is not an auth failure")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestFetchAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	_, err := c.Fetch(context.Background(), "search", nil)

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected *ClientError, got %v", err)
	}
	if !clientErr.AuthFailure() {
		t.Fatal("401 should report AuthFailure")
	}
}

func TestFetchExhaustedRetriesIsTransient(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	_, err := c.Fetch(context.Background(), "search", url.Values{"cursor": {"abc"}})

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected *TransientError, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected MaxRetries+1 attempts, got %d", attempts)
	}
}

func TestFetchDecodesOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"ID": "rec-1",
					"Route": map[string]any{
						"OriginAirport":      "SFO",
						"DestinationAirport": "NRT",
						"Source":             "aeroplan",
					},
					"Date":           "2026-10-01",
					"Cabin":          "J",
					"MileageCost":    75000,
					"RemainingSeats": 2,
					"TotalTaxes":     5640,
					"TaxesCurrency":  "USD",
				},
				{"ID": "rec-2"},
			},
			"count":   2,
			"hasMore": true,
			"cursor":  "next-cursor",
		})
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL), noopLogger())
	page, err := c.Fetch(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !page.HasMore || page.Cursor != "next-cursor" {
		t.Fatalf("pagination fields not decoded: %+v", page)
	}

	full := page.Records[0]
	if full.Origin != "SFO" || full.Destination != "NRT" || full.Source != "aeroplan" {
		t.Fatalf("route fields not decoded: %+v", full)
	}
	if full.MileageCost == nil || *full.MileageCost != 75000 {
		t.Fatalf("mileage not decoded: %+v", full.MileageCost)
	}
	if full.Taxes == nil || full.Taxes.StringFixed(2) != "56.40" {
		t.Fatalf("taxes should convert from minor units: %+v", full.Taxes)
	}
	if len(full.Payload) == 0 {
		t.Fatal("raw payload should be preserved")
	}

	sparse := page.Records[1]
	if sparse.MileageCost != nil || sparse.RemainingSeats != nil || sparse.Taxes != nil {
		t.Fatalf("absent optional fields must stay nil: %+v", sparse)
	}
}
