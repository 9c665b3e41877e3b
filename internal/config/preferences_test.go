package config_test

import (
	"context"
	"errors"
	"testing"

	"moviecase/internal/config"
)

type memoryPrefs struct {
	values map[string]string
	err    error
}

func (m *memoryPrefs) LoadSettings(context.Context) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memoryPrefs) SaveSettings(_ context.Context, values map[string]string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memoryPrefs) ClearSettings(context.Context) error {
	m.values = nil
	return nil
}

func TestPreferencesRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := &memoryPrefs{}
	base := config.DefaultPreferences()

	updated, err := base.Set(config.PrefDefaultRating, "8")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	updated, err = updated.Set(config.PrefEnableBarcodeSound, "false")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := config.SavePreferences(ctx, store, updated); err != nil {
		t.Fatalf("SavePreferences returned error: %v", err)
	}

	loaded, err := config.LoadPreferences(ctx, store, base)
	if err != nil {
		t.Fatalf("LoadPreferences returned error: %v", err)
	}
	if loaded.DefaultRating != 8 || loaded.EnableBarcodeSound {
		t.Fatalf("unexpected loaded preferences: %+v", loaded)
	}

	reset, err := config.ResetPreferences(ctx, store, base)
	if err != nil {
		t.Fatalf("ResetPreferences returned error: %v", err)
	}
	if reset != base {
		t.Fatalf("expected defaults after reset, got %+v", reset)
	}
	again, err := config.LoadPreferences(ctx, store, base)
	if err != nil {
		t.Fatalf("LoadPreferences returned error: %v", err)
	}
	if again != base {
		t.Fatalf("expected defaults after clearing overrides, got %+v", again)
	}
}

func TestPreferencesImportCoercesValues(t *testing.T) {
	prefs, err := config.DefaultPreferences().Import(map[string]any{
		config.PrefDefaultRating:    float64(7),
		config.PrefShowMovieCount:   "false",
		config.PrefAutoFetchPosters: false,
		"omdb_api_key":              "ignored",
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if prefs.DefaultRating != 7 || prefs.ShowMovieCount || prefs.AutoFetchPosters {
		t.Fatalf("unexpected imported preferences: %+v", prefs)
	}
}

func TestPreferencesImportRejectsInvalid(t *testing.T) {
	base := config.DefaultPreferences()
	if _, err := base.Import(map[string]any{config.PrefDefaultRating: 0}); err == nil {
		t.Fatal("expected range error for rating 0")
	}
	if _, err := base.Import(map[string]any{config.PrefShowMovieCount: "maybe"}); err == nil {
		t.Fatal("expected coercion error for non-boolean")
	}
	if _, err := base.Set("omdb_api_key", "x"); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestPreferencesExportOmitsKeys(t *testing.T) {
	exported := config.DefaultPreferences().Export()
	if len(exported) != len(config.PreferenceKeys()) {
		t.Fatalf("unexpected export keys: %v", exported)
	}
	for key := range exported {
		if key == "omdb_api_key" || key == "tmdb_api_key" {
			t.Fatalf("export must not include %s", key)
		}
	}
}

func TestLoadPreferencesPropagatesStoreError(t *testing.T) {
	store := &memoryPrefs{err: errors.New("db closed")}
	base := config.DefaultPreferences()
	got, err := config.LoadPreferences(context.Background(), store, base)
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if got != base {
		t.Fatalf("expected base preferences on error, got %+v", got)
	}
}
