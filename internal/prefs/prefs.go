// Package prefs persists user preferences as a dotenv-format key/value
// file. Values are plain strings; callers interpret them.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	KeyCurrencyCode  = "CURRENCY_CODE"
	KeyLanguage      = "LANGUAGE"
	KeyTheme         = "THEME"
	KeyCardStyle     = "CARD_STYLE"
	KeyDefaultFilter = "DEFAULT_FILTER"
)

// defaults apply when the file is missing or a key was never set.
var defaults = map[string]string{
	KeyCurrencyCode:  "USD",
	KeyLanguage:      "system",
	KeyTheme:         "system",
	KeyCardStyle:     "rounded",
	KeyDefaultFilter: "this_month",
}

// Store reads and writes the preferences file. Every Get reloads from
// disk so concurrent processes see each other's writes; the file is
// small enough that this costs nothing.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the stored value for key, or its default when unset.
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return defaults[key]
	}
	if v, ok := values[key]; ok && v != "" {
		return v
	}
	return defaults[key]
}

// Set writes key=value, preserving all other keys in the file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := godotenv.Write(values, s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	return values, nil
}

func (s *Store) CurrencyCode() string  { return s.Get(KeyCurrencyCode) }
func (s *Store) Language() string      { return s.Get(KeyLanguage) }
func (s *Store) Theme() string         { return s.Get(KeyTheme) }
func (s *Store) CardStyle() string     { return s.Get(KeyCardStyle) }
func (s *Store) DefaultFilter() string { return s.Get(KeyDefaultFilter) }
