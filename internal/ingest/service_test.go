package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"moviecase/internal/barcodecache"
	"moviecase/internal/catalog"
	"moviecase/internal/ingest"
	"moviecase/internal/lookup"
	"moviecase/internal/lookup/tmdb"
	"moviecase/internal/postercache"
	"moviecase/internal/services"
	"moviecase/internal/testsupport"
)

type providerServer struct {
	*httptest.Server
	upcCalls atomic.Int64
}

func newProviderServer(t *testing.T) *providerServer {
	t.Helper()
	ps := &providerServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/tmdb/search/movie":
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30","poster_path":"/matrix.jpg"}]}`))
		case "/tmdb/movie/603":
			_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-30","imdb_id":"tt0133093","runtime":136,
				"genres":[{"name":"Action"}],"credits":{"cast":[{"name":"Keanu Reeves"}],"crew":[{"name":"Lana Wachowski","job":"Director"}]}}`))
		case "/images/matrix.jpg":
			_, _ = w.Write([]byte("matrix-jpeg"))
		case "/upc/lookup":
			ps.upcCalls.Add(1)
			switch q.Get("upc") {
			case "883929106707":
				_, _ = w.Write([]byte(`{"code":"OK","items":[{"title":"Inception (Blu-ray + DVD)"}]}`))
			default:
				_, _ = w.Write([]byte(`{"code":"OK","items":[]}`))
			}
		case "/omdb/":
			switch {
			case q.Get("t") == "Inception", q.Get("i") == "tt1375666":
				_, _ = w.Write([]byte(`{"Title":"Inception","Year":"2010","Director":"Christopher Nolan","imdbID":"tt1375666","Poster":"N/A","Response":"True"}`))
			default:
				_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
			}
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ps.Close)
	return ps
}

type fixture struct {
	service  *ingest.Service
	server   *providerServer
	barcodes *barcodecache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := newProviderServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithProviderServer(server.URL))
	lib, db := testsupport.MustOpenLibrary(t, cfg)
	client, err := lookup.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	posters, err := postercache.NewFromConfig(cfg, db, nil)
	if err != nil {
		t.Fatalf("postercache: %v", err)
	}
	barcodes := barcodecache.NewCache(cfg.Barcode.CachePath, nil)
	service := ingest.New(client, lib,
		ingest.WithPosters(posters),
		ingest.WithBarcodeCache(barcodes),
	)
	return &fixture{service: service, server: server, barcodes: barcodes}
}

func TestSearchAndAddFromSummaryWithPoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.service.SearchTMDB(ctx, "matrix", 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("SearchTMDB: %v %v", results, err)
	}
	summary := results[0]
	summary.PosterPath = f.server.URL + "/images/matrix.jpg"
	movie, err := f.service.AddFromSummary(ctx, summary, ingest.Options{Wanted: true, FetchPoster: true, Rating: catalog.Int(11)})
	if err != nil {
		t.Fatalf("AddFromSummary: %v", err)
	}
	if movie.Title != "The Matrix" || !movie.IsWanted || catalog.Value(movie.UserRating) != 10 {
		t.Fatalf("unexpected movie %+v", movie)
	}
	if string(movie.PosterData) != "matrix-jpeg" {
		t.Fatalf("expected poster bytes, got %q", movie.PosterData)
	}
}

func TestAddByTMDBIDUsesDetails(t *testing.T) {
	f := newFixture(t)
	movie, err := f.service.AddByTMDBID(context.Background(), 603, ingest.Options{})
	if err != nil {
		t.Fatalf("AddByTMDBID: %v", err)
	}
	if catalog.Value(movie.Director) != "Lana Wachowski" || catalog.Value(movie.IMDbID) != "tt0133093" {
		t.Fatalf("expected details fields, got %+v", movie)
	}
	if catalog.Value(movie.TMDBID) != 603 {
		t.Fatalf("expected tmdb cross reference, got %v", movie.TMDBID)
	}
}

func TestAddByTitleNotFoundPropagates(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.AddByTitle(context.Background(), "Nonexistent", ingest.Options{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScanBarcodeResolvesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movie, err := f.service.ScanBarcode(ctx, "8-83929-10670-7", ingest.Options{})
	if err != nil {
		t.Fatalf("ScanBarcode: %v", err)
	}
	if movie.Title != "Inception" || catalog.Value(movie.Barcode) != "883929106707" {
		t.Fatalf("unexpected movie %+v", movie)
	}
	entry, ok := f.barcodes.Lookup("883929106707")
	if !ok || entry.IMDbID != "tt1375666" || entry.ProductTitle != "Inception (Blu-ray + DVD)" {
		t.Fatalf("unexpected cache entry %+v %v", entry, ok)
	}

	if _, err := f.service.ScanBarcode(ctx, "883929106707", ingest.Options{}); !errors.Is(err, services.ErrDuplicateID) {
		t.Fatalf("expected duplicate on rescan, got %v", err)
	}
}

func TestScanBarcodeUsesCacheBeforeProvider(t *testing.T) {
	f := newFixture(t)
	if err := f.barcodes.Store(barcodecache.Entry{Barcode: "111", Title: "Inception", IMDbID: "tt1375666"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	movie, err := f.service.ScanBarcode(context.Background(), "111", ingest.Options{})
	if err != nil {
		t.Fatalf("ScanBarcode: %v", err)
	}
	if movie.Title != "Inception" {
		t.Fatalf("unexpected title %q", movie.Title)
	}
	if f.server.upcCalls.Load() != 0 {
		t.Fatal("cached barcode should not hit the UPC provider")
	}
}

func TestScanBarcodeUnknownNeverInventsData(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ScanBarcode(context.Background(), "000000000000", ingest.Options{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.service.ScanBarcode(context.Background(), "abc", ingest.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddBarcodePlaceholder(t *testing.T) {
	f := newFixture(t)
	movie, err := f.service.AddBarcodePlaceholder(context.Background(), "000000000000", ingest.Options{Wanted: true})
	if err != nil {
		t.Fatalf("AddBarcodePlaceholder: %v", err)
	}
	if movie.Title != catalog.UnknownTitle || catalog.Value(movie.Plot) != "Movie added via barcode scan: 000000000000" {
		t.Fatalf("unexpected placeholder %+v", movie)
	}
	if _, err := f.service.AddBarcodePlaceholder(context.Background(), "000000000000", ingest.Options{}); !errors.Is(err, services.ErrDuplicateID) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestAddManualGeneratesIdentity(t *testing.T) {
	f := newFixture(t)
	input := catalog.Movie{ID: "caller-id", Title: "  ", Director: catalog.Str("Me")}
	movie, err := f.service.AddManual(context.Background(), input, ingest.Options{Rating: catalog.Int(0)})
	if err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	if movie.ID == "caller-id" || movie.ID == "" || movie.DateAdded.IsZero() {
		t.Fatalf("identity should be generated, got %+v", movie)
	}
	if movie.Title != catalog.UnknownTitle || catalog.Value(movie.UserRating) != 1 {
		t.Fatalf("unexpected manual movie %+v", movie)
	}
}

func TestMissingKeyIsNotConfigured(t *testing.T) {
	server := newProviderServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithProviderServer(server.URL), testsupport.WithTMDBKey(""))
	lib, _ := testsupport.MustOpenLibrary(t, cfg)
	client, _ := lookup.NewFromConfig(cfg, nil)
	service := ingest.New(client, lib)
	if _, err := service.Popular(context.Background(), 1); !errors.Is(err, services.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if _, err := service.AddFromSummary(context.Background(), tmdb.Result{}, ingest.Options{}); err != nil {
		t.Fatalf("adding an empty summary should still produce a record: %v", err)
	}
}
