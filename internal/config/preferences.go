package config

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cast"
)

// Preference keys as stored in the settings table and used by export/import.
const (
	PrefDefaultRating      = "default_rating"
	PrefAutoFetchPosters   = "auto_fetch_posters"
	PrefShowMovieCount     = "show_movie_count"
	PrefEnableBarcodeSound = "enable_barcode_sound"
)

// Preferences holds user-facing defaults. Values in config.toml are the
// baseline; rows persisted through a PreferenceStore take precedence.
type Preferences struct {
	DefaultRating      int  `toml:"default_rating" json:"default_rating"`
	AutoFetchPosters   bool `toml:"auto_fetch_posters" json:"auto_fetch_posters"`
	ShowMovieCount     bool `toml:"show_movie_count" json:"show_movie_count"`
	EnableBarcodeSound bool `toml:"enable_barcode_sound" json:"enable_barcode_sound"`
}

// PreferenceStore persists preference overrides as string key/value pairs.
type PreferenceStore interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	ClearSettings(ctx context.Context) error
}

// DefaultPreferences returns the factory preference values.
func DefaultPreferences() Preferences {
	return Preferences{
		DefaultRating:      defaultMovieRating,
		AutoFetchPosters:   true,
		ShowMovieCount:     true,
		EnableBarcodeSound: true,
	}
}

// PreferenceKeys lists the recognised preference keys in display order.
func PreferenceKeys() []string {
	return []string{PrefDefaultRating, PrefAutoFetchPosters, PrefShowMovieCount, PrefEnableBarcodeSound}
}

// Validate checks preference ranges.
func (p Preferences) Validate() error {
	if p.DefaultRating < 1 || p.DefaultRating > 10 {
		return fmt.Errorf("preferences.default_rating must be between 1 and 10, got %d", p.DefaultRating)
	}
	return nil
}

// Export returns the preferences as a generic map. Provider keys are never
// part of the export.
func (p Preferences) Export() map[string]any {
	return map[string]any{
		PrefDefaultRating:      p.DefaultRating,
		PrefAutoFetchPosters:   p.AutoFetchPosters,
		PrefShowMovieCount:     p.ShowMovieCount,
		PrefEnableBarcodeSound: p.EnableBarcodeSound,
	}
}

// Import applies recognised keys from data onto a copy of p. Unknown keys are
// ignored; values are coerced so JSON numbers, strings, and booleans all work.
func (p Preferences) Import(data map[string]any) (Preferences, error) {
	out := p
	for _, key := range slices.Sorted(maps.Keys(data)) {
		if err := out.set(key, data[key]); err != nil {
			return p, err
		}
	}
	if err := out.Validate(); err != nil {
		return p, err
	}
	return out, nil
}

// Set assigns a single preference from its textual form.
func (p Preferences) Set(key, value string) (Preferences, error) {
	if !slices.Contains(PreferenceKeys(), key) {
		return p, fmt.Errorf("unknown preference %q (known: %v)", key, PreferenceKeys())
	}
	return p.Import(map[string]any{key: value})
}

func (p *Preferences) set(key string, value any) error {
	var err error
	switch key {
	case PrefDefaultRating:
		p.DefaultRating, err = cast.ToIntE(value)
	case PrefAutoFetchPosters:
		p.AutoFetchPosters, err = cast.ToBoolE(value)
	case PrefShowMovieCount:
		p.ShowMovieCount, err = cast.ToBoolE(value)
	case PrefEnableBarcodeSound:
		p.EnableBarcodeSound, err = cast.ToBoolE(value)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("preference %s: %w", key, err)
	}
	return nil
}

func (p Preferences) encode() map[string]string {
	return map[string]string{
		PrefDefaultRating:      strconv.Itoa(p.DefaultRating),
		PrefAutoFetchPosters:   strconv.FormatBool(p.AutoFetchPosters),
		PrefShowMovieCount:     strconv.FormatBool(p.ShowMovieCount),
		PrefEnableBarcodeSound: strconv.FormatBool(p.EnableBarcodeSound),
	}
}

// LoadPreferences overlays persisted overrides onto base.
func LoadPreferences(ctx context.Context, store PreferenceStore, base Preferences) (Preferences, error) {
	if store == nil {
		return base, nil
	}
	values, err := store.LoadSettings(ctx)
	if err != nil {
		return base, fmt.Errorf("load settings: %w", err)
	}
	data := make(map[string]any, len(values))
	for k, v := range values {
		data[k] = v
	}
	return base.Import(data)
}

// SavePreferences persists every preference key.
func SavePreferences(ctx context.Context, store PreferenceStore, prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := store.SaveSettings(ctx, prefs.encode()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ResetPreferences drops persisted overrides and returns the config baseline.
func ResetPreferences(ctx context.Context, store PreferenceStore, base Preferences) (Preferences, error) {
	if err := store.ClearSettings(ctx); err != nil {
		return base, fmt.Errorf("clear settings: %w", err)
	}
	return base, nil
}
