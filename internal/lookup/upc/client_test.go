package upc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moviecase/internal/lookup/upc"
	"moviecase/internal/services"
)

func TestLookupReturnsItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup" || r.URL.Query().Get("upc") != "883929106465" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.Header.Get("user_key") != "paid" {
			t.Errorf("expected user_key header, got %q", r.Header.Get("user_key"))
		}
		_, _ = w.Write([]byte(`{"code":"OK","total":2,"items":[{"title":"Inception (Blu-ray)","upc":"883929106465"},{"title":""}]}`))
	}))
	t.Cleanup(server.Close)

	client := upc.New(server.URL, "paid")
	items, err := client.Lookup(context.Background(), "8839-2910-6465")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Inception (Blu-ray)" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestLookupNoItemsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"OK","total":0,"items":[]}`))
	}))
	t.Cleanup(server.Close)

	if _, err := upc.New(server.URL, "").Lookup(context.Background(), "000000000000"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupInvalidCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"INVALID_UPC","message":"Not a valid UPC code."}`))
	}))
	t.Cleanup(server.Close)

	client := upc.New(server.URL, "")
	if _, err := client.Lookup(context.Background(), "123"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Lookup(context.Background(), "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-digit code, got %v", err)
	}
}

func TestLookupUnexpectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"TOO_FAST"}`))
	}))
	t.Cleanup(server.Close)

	if _, err := upc.New(server.URL, "").Lookup(context.Background(), "123456"); !errors.Is(err, services.ErrInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"INCEPTION (BLU-RAY + DVD) [2010]":           "Inception",
		"The Matrix 4K Ultra HD + Blu-ray + Digital": "The Matrix",
		"Alien - Widescreen DVD":                     "Alien",
		"the godfather 2-disc dvd":                   "The Godfather",
		"Amélie [Region 2]":                          "Amélie",
		"Blu-ray":                                    "",
	}
	for in, want := range cases {
		if got := upc.CleanTitle(in); got != want {
			t.Fatalf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := upc.NormalizeCode(" 0 12-34 "); got != "01234" {
		t.Fatalf("unexpected normalized code %q", got)
	}
}
