package prefs

import (
	"path/filepath"
	"testing"
)

func TestStoreDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "prefs.env"))

	if got := s.CurrencyCode(); got != "USD" {
		t.Fatalf("CurrencyCode = %q, want USD", got)
	}
	if got := s.Theme(); got != "system" {
		t.Fatalf("Theme = %q, want system", got)
	}
	if got := s.CardStyle(); got != "rounded" {
		t.Fatalf("CardStyle = %q, want rounded", got)
	}
	if got := s.DefaultFilter(); got != "this_month" {
		t.Fatalf("DefaultFilter = %q, want this_month", got)
	}
}

func TestStoreSetPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.env")
	s := NewStore(path)

	if err := s.Set(KeyCurrencyCode, "EUR"); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if err := s.Set(KeyTheme, "dark"); err != nil {
		t.Fatalf("set theme: %v", err)
	}

	// A fresh store over the same file must see both writes.
	reopened := NewStore(path)
	if got := reopened.CurrencyCode(); got != "EUR" {
		t.Fatalf("CurrencyCode = %q, want EUR", got)
	}
	if got := reopened.Theme(); got != "dark" {
		t.Fatalf("Theme = %q, want dark", got)
	}
	// Untouched keys keep their defaults.
	if got := reopened.CardStyle(); got != "rounded" {
		t.Fatalf("CardStyle = %q, want rounded", got)
	}
}

func TestStoreSetOverwritesSingleKey(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "prefs.env"))

	if err := s.Set(KeyLanguage, "it"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if err := s.Set(KeyLanguage, "fr"); err != nil {
		t.Fatalf("overwrite language: %v", err)
	}
	if got := s.Language(); got != "fr" {
		t.Fatalf("Language = %q, want fr", got)
	}
}
