// Package prefs is the persisted preference store backing the overlay's
// feature flags and the model configuration. It exposes a get/set/subscribe
// key-value contract; the overlay core never reads it directly and only
// receives flags through Controller.SetFlags.
package prefs

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/glebarez/sqlite"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Preference keys. KnownKeys lists every key the store recognizes, in the
// order they appear in settings UIs.
const (
	KeyOverlayEnabled     = "overlay.enabled"
	KeyGhostEnabled       = "overlay.ghost"
	KeySuggestionsEnabled = "overlay.suggestions"
	KeyErrorsEnabled      = "overlay.errors"

	KeyModelProvider    = "model.provider"
	KeyModelBaseURL     = "model.base_url"
	KeyModelAPIKey      = "model.api_key"
	KeyModelID          = "model.id"
	KeyModelTemperature = "model.temperature"
)

var KnownKeys = []string{
	KeyOverlayEnabled,
	KeyGhostEnabled,
	KeySuggestionsEnabled,
	KeyErrorsEnabled,
	KeyModelProvider,
	KeyModelBaseURL,
	KeyModelAPIKey,
	KeyModelID,
	KeyModelTemperature,
}

// Preference is one persisted key-value pair.
type Preference struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt int64 `gorm:"autoUpdateTime"`
}

// Store is the sqlite-backed preference store. Safe for concurrent use.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	subs   map[int]func(key, value string)
	nextID int
}

// NewStore opens (creating if necessary) the preference database at the
// given path. ":memory:" creates an ephemeral store for tests.
func NewStore(dbFilePath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening preference database")
		return nil, err
	}

	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, err
	}

	return &Store{
		db:   db,
		subs: map[int]func(key, value string){},
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the stored value for key, or def when the key has never been
// set.
func (s *Store) Get(key, def string) string {
	var pref Preference
	result := s.db.Where("key = ?", key).First(&pref)
	if result.Error != nil {
		return def
	}
	return pref.Value
}

// Set stores value under key and notifies every subscriber.
func (s *Store) Set(key, value string) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Preference{Key: key, Value: value})
	if result.Error != nil {
		return result.Error
	}

	s.mu.RLock()
	subs := make([]func(key, value string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(key, value)
	}
	return nil
}

// Subscribe registers fn to run on every Set and returns its unsubscribe
// function.
func (s *Store) Subscribe(fn func(key, value string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// GetBool reads a boolean preference.
func (s *Store) GetBool(key string, def bool) bool {
	value := s.Get(key, strconv.FormatBool(def))
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

// SetBool stores a boolean preference.
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// LoadFlags assembles the overlay feature flags from the store. Unset keys
// default to enabled.
func (s *Store) LoadFlags() overlay.Flags {
	return overlay.Flags{
		OverlayEnabled:     s.GetBool(KeyOverlayEnabled, true),
		GhostEnabled:       s.GetBool(KeyGhostEnabled, true),
		SuggestionsEnabled: s.GetBool(KeySuggestionsEnabled, true),
		ErrorsEnabled:      s.GetBool(KeyErrorsEnabled, true),
	}
}

// SaveFlags persists the overlay feature flags.
func (s *Store) SaveFlags(flags overlay.Flags) error {
	pairs := []struct {
		key   string
		value bool
	}{
		{KeyOverlayEnabled, flags.OverlayEnabled},
		{KeyGhostEnabled, flags.GhostEnabled},
		{KeySuggestionsEnabled, flags.SuggestionsEnabled},
		{KeyErrorsEnabled, flags.ErrorsEnabled},
	}
	for _, p := range pairs {
		if err := s.SetBool(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// IsFlagKey reports whether key belongs to the overlay feature flags.
func IsFlagKey(key string) bool {
	switch key {
	case KeyOverlayEnabled, KeyGhostEnabled, KeySuggestionsEnabled, KeyErrorsEnabled:
		return true
	}
	return false
}

// NearestKey fuzzy-matches query against the known preference keys, for
// "did you mean" handling of mistyped keys on the command line.
func NearestKey(query string) (string, bool) {
	matches := fuzzy.Find(query, KnownKeys)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
