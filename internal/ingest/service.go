package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moviecase/internal/barcodecache"
	"moviecase/internal/catalog"
	"moviecase/internal/library"
	"moviecase/internal/logging"
	"moviecase/internal/lookup/omdb"
	"moviecase/internal/lookup/tmdb"
	"moviecase/internal/lookup/upc"
	"moviecase/internal/normalize"
	"moviecase/internal/services"
)

const stage = "ingest"

// Provider is the subset of lookup.Client the workflows need.
type Provider interface {
	Popular(ctx context.Context, page int) ([]tmdb.Result, error)
	Search(ctx context.Context, query string, page int) ([]tmdb.Result, error)
	Details(ctx context.Context, id int64) (*tmdb.Details, error)
	ByTitle(ctx context.Context, title string) (*omdb.Title, error)
	ByIMDbID(ctx context.Context, imdbID string) (*omdb.Title, error)
	Barcode(ctx context.Context, code string) ([]upc.Item, error)
}

// Options control how a looked-up record is saved.
type Options struct {
	Wanted        bool
	FetchPoster   bool
	Rating        *int
	CollectionIDs []string
}

// Service runs the ingestion workflows: lookup, normalize, optional poster
// fetch, then insert into the library.
type Service struct {
	lookup     Provider
	store      *library.Store
	posters    normalize.PosterFetcher
	barcodes   *barcodecache.Cache
	normalizer normalize.Normalizer
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPosters enables poster downloads through the given cache.
func WithPosters(posters normalize.PosterFetcher) Option {
	return func(s *Service) { s.posters = posters }
}

// WithBarcodeCache remembers barcode to title mappings.
func WithBarcodeCache(cache *barcodecache.Cache) Option {
	return func(s *Service) { s.barcodes = cache }
}

// WithNormalizer overrides the record normalizer.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service.
func New(provider Provider, store *library.Store, opts ...Option) *Service {
	s := &Service{
		lookup: provider,
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, stage)
	return s
}

// SearchTMDB returns provider A summaries for a free-text query.
func (s *Service) SearchTMDB(ctx context.Context, query string, page int) ([]tmdb.Result, error) {
	results, err := s.lookup.Search(ctx, query, page)
	if err != nil {
		return nil, wrap("search", fmt.Sprintf("query %q", query), err)
	}
	return results, nil
}

// Popular returns provider A's popular list.
func (s *Service) Popular(ctx context.Context, page int) ([]tmdb.Result, error) {
	results, err := s.lookup.Popular(ctx, page)
	if err != nil {
		return nil, wrap("popular", "", err)
	}
	return results, nil
}

// AddFromSummary saves a search or popular-list result.
func (s *Service) AddFromSummary(ctx context.Context, summary tmdb.Result, opts Options) (catalog.Movie, error) {
	movie := s.normalizer.FromSummary(summary, opts.Wanted)
	return s.save(ctx, "add from summary", "tmdb", movie, opts)
}

// AddByTMDBID fetches full details (credits, genres, IMDb id) and saves them.
func (s *Service) AddByTMDBID(ctx context.Context, id int64, opts Options) (catalog.Movie, error) {
	details, err := s.lookup.Details(ctx, id)
	if err != nil {
		return catalog.Movie{}, wrap("add by tmdb id", fmt.Sprintf("tmdb id %d", id), err)
	}
	movie := s.normalizer.FromDetails(*details, opts.Wanted)
	return s.save(ctx, "add by tmdb id", "tmdb", movie, opts)
}

// AddByTitle looks a title up on provider B and saves the match.
func (s *Service) AddByTitle(ctx context.Context, title string, opts Options) (catalog.Movie, error) {
	result, err := s.lookup.ByTitle(ctx, title)
	if err != nil {
		return catalog.Movie{}, wrap("add by title", fmt.Sprintf("title %q", title), err)
	}
	movie := s.normalizer.FromTitle(*result, opts.Wanted)
	return s.save(ctx, "add by title", "omdb", movie, opts)
}

// AddByIMDbID looks an IMDb id up on provider B and saves the match.
func (s *Service) AddByIMDbID(ctx context.Context, imdbID string, opts Options) (catalog.Movie, error) {
	result, err := s.lookup.ByIMDbID(ctx, imdbID)
	if err != nil {
		return catalog.Movie{}, wrap("add by imdb id", fmt.Sprintf("imdb id %q", imdbID), err)
	}
	movie := s.normalizer.FromTitle(*result, opts.Wanted)
	return s.save(ctx, "add by imdb id", "omdb", movie, opts)
}

// ScanBarcode resolves a barcode to a title and saves it. The mapping cache
// is consulted first; on a miss the UPC product title is cleaned and looked
// up on provider B. A barcode that cannot be resolved is reported as not
// found and nothing is saved.
func (s *Service) ScanBarcode(ctx context.Context, code string, opts Options) (catalog.Movie, error) {
	ctx = services.WithStage(ctx, "barcode")
	code = upc.NormalizeCode(code)
	if code == "" {
		return catalog.Movie{}, services.Wrap(services.ErrValidation, stage, "scan barcode", "barcode must contain digits", nil)
	}
	if existing, ok := s.store.FindByBarcode(code); ok {
		return existing, services.Wrap(services.ErrDuplicateID, stage, "scan barcode",
			fmt.Sprintf("barcode %s already saved as %q", code, existing.Title), nil)
	}

	result, product, err := s.resolveBarcode(ctx, code)
	if err != nil {
		return catalog.Movie{}, wrap("scan barcode", "barcode "+code, err)
	}

	movie := s.normalizer.FromTitle(*result, opts.Wanted)
	if err := movie.AssignBarcode(code); err != nil {
		return catalog.Movie{}, services.Wrap(services.ErrValidation, stage, "scan barcode", "assign barcode", err)
	}
	saved, err := s.save(ctx, "scan barcode", "barcode", movie, opts)
	if err != nil {
		return catalog.Movie{}, err
	}

	if s.barcodes != nil {
		entry := barcodecache.Entry{
			Barcode:      code,
			Title:        saved.Title,
			IMDbID:       catalog.Value(saved.IMDbID),
			ProductTitle: product,
			CachedAt:     time.Now().UTC(),
		}
		if err := s.barcodes.Store(entry); err != nil {
			s.logger.Warn("failed to remember barcode mapping",
				logging.String(logging.FieldEventType, "barcode_cache_store_failed"),
				logging.String("barcode", code),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next scan of this barcode will query the UPC provider"))
		}
	}
	return saved, nil
}

func (s *Service) resolveBarcode(ctx context.Context, code string) (*omdb.Title, string, error) {
	if entry, ok := s.barcodes.Lookup(code); ok {
		var (
			result *omdb.Title
			err    error
		)
		if entry.IMDbID != "" {
			result, err = s.lookup.ByIMDbID(ctx, entry.IMDbID)
		} else {
			result, err = s.lookup.ByTitle(ctx, entry.Title)
		}
		if err == nil {
			s.logger.Debug("barcode resolved from cache",
				logging.String("barcode", code),
				logging.String("title", entry.Title))
			return result, entry.ProductTitle, nil
		}
		if !errors.Is(err, services.ErrNotFound) {
			return nil, "", err
		}
	}

	items, err := s.lookup.Barcode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	tried := make(map[string]struct{})
	for _, item := range items {
		title := upc.CleanTitle(item.Title)
		key := strings.ToLower(title)
		if title == "" {
			continue
		}
		if _, seen := tried[key]; seen {
			continue
		}
		tried[key] = struct{}{}

		result, err := s.lookup.ByTitle(ctx, title)
		if err == nil {
			return result, item.Title, nil
		}
		if !errors.Is(err, services.ErrNotFound) {
			return nil, "", err
		}
		s.logger.Debug("barcode product title had no match",
			logging.String("barcode", code),
			logging.String("product_title", item.Title),
			logging.String("clean_title", title))
	}
	return nil, "", services.Wrap(services.ErrNotFound, stage, "resolve barcode",
		fmt.Sprintf("no movie matches barcode %s", code), nil)
}

// AddBarcodePlaceholder saves an "Unknown Movie" record carrying only the
// barcode. It is the explicit manual path for unresolvable barcodes.
func (s *Service) AddBarcodePlaceholder(ctx context.Context, code string, opts Options) (catalog.Movie, error) {
	code = upc.NormalizeCode(code)
	if code == "" {
		return catalog.Movie{}, services.Wrap(services.ErrValidation, stage, "add barcode placeholder", "barcode must contain digits", nil)
	}
	if existing, ok := s.store.FindByBarcode(code); ok {
		return existing, services.Wrap(services.ErrDuplicateID, stage, "add barcode placeholder",
			fmt.Sprintf("barcode %s already saved as %q", code, existing.Title), nil)
	}
	movie := s.normalizer.FromBarcode(code, opts.Wanted)
	opts.FetchPoster = false
	return s.save(ctx, "add barcode placeholder", "placeholder", movie, opts)
}

// AddManual saves a user-entered record. The id and DateAdded are always
// generated here; any values on input are ignored.
func (s *Service) AddManual(ctx context.Context, input catalog.Movie, opts Options) (catalog.Movie, error) {
	fresh := catalog.NewMovie(input.Title, s.now())
	movie := input.Clone()
	movie.ID = fresh.ID
	movie.Title = fresh.Title
	movie.DateAdded = fresh.DateAdded
	movie.IsWanted = input.IsWanted || opts.Wanted
	movie.CollectionIDs = nil
	if opts.Rating == nil {
		opts.Rating = input.UserRating
	}
	return s.save(ctx, "add manual", "manual", movie, opts)
}

func (s *Service) save(ctx context.Context, operation, source string, movie catalog.Movie, opts Options) (catalog.Movie, error) {
	if opts.Rating != nil {
		movie.SetRating(opts.Rating)
	}
	movie.CollectionIDs = append([]string(nil), opts.CollectionIDs...)
	if opts.FetchPoster && s.posters != nil {
		if !normalize.FetchPosterBytes(ctx, s.posters, &movie) && movie.PosterURL != nil {
			s.logger.Debug("poster unavailable", logging.Args(append(
				logging.MovieAttrs(movie.ID, movie.Title),
				logging.String(logging.FieldPosterURL, *movie.PosterURL))...)...)
		}
	}
	if err := s.store.Insert(ctx, movie); err != nil {
		return catalog.Movie{}, wrap(operation, fmt.Sprintf("save %q", movie.Title), err)
	}
	saved, _ := s.store.Movie(movie.ID)

	attrs := append(logging.MovieAttrs(saved.ID, saved.Title),
		logging.String(logging.FieldEventType, "movie_added"),
		logging.String("source", source),
		logging.Bool("wanted", saved.IsWanted),
		logging.Bool("poster_cached", saved.HasLocalPoster()))
	s.logger.Info("movie added", logging.Args(attrs...)...)
	return saved, nil
}

func (s *Service) now() time.Time {
	if s.normalizer.Now != nil {
		return s.normalizer.Now()
	}
	return time.Now()
}

func wrap(operation, message string, err error) error {
	return services.Wrap(services.Marker(err), stage, operation, message, err)
}
