// Package settings persists user preferences in a JSON file merged over
// built-in defaults.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Settings holds every recognised preference
type Settings struct {
	APIURL             string `json:"api_url"`
	APITimeout         int    `json:"api_timeout"`
	Theme              string `json:"theme"`
	StudySessionCards  int    `json:"study_session_cards"`
	CardFontSize       int    `json:"card_font_size"`
	FontSize           string `json:"font_size"`
	SaveHistory        bool   `json:"save_history"`
	MaxHistorySessions int    `json:"max_history_sessions"`
	ShuffleCards       bool   `json:"shuffle_cards"`
	AutoFlip           bool   `json:"auto_flip"`
}

// Defaults returns the settings used when the file is missing or a key is absent
func Defaults() Settings {
	return Settings{
		APIURL:             "http://localhost:8000",
		APITimeout:         60,
		Theme:              "light",
		StudySessionCards:  20,
		CardFontSize:       14,
		FontSize:           "medium",
		SaveHistory:        true,
		MaxHistorySessions: 100,
		ShuffleCards:       true,
		AutoFlip:           false,
	}
}

// ErrUnknownKey is returned by Get and Set for keys outside the recognised set
var ErrUnknownKey = errors.New("unknown setting")

type field struct {
	get func(s *Settings) any
	set func(s *Settings, raw string) error
}

var fields = map[string]field{
	"api_url": {
		get: func(s *Settings) any { return s.APIURL },
		set: func(s *Settings, raw string) error {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("api_url must be an http(s) URL")
			}
			s.APIURL = strings.TrimRight(raw, "/")
			return nil
		},
	},
	"api_timeout": {
		get: func(s *Settings) any { return s.APITimeout },
		set: intSetter(func(s *Settings, n int) { s.APITimeout = n }, 1, 600),
	},
	"theme": {
		get: func(s *Settings) any { return s.Theme },
		set: choiceSetter(func(s *Settings, v string) { s.Theme = v }, "light", "dark", "system"),
	},
	"study_session_cards": {
		get: func(s *Settings) any { return s.StudySessionCards },
		set: intSetter(func(s *Settings, n int) { s.StudySessionCards = n }, 0, 1000),
	},
	"card_font_size": {
		get: func(s *Settings) any { return s.CardFontSize },
		set: intSetter(func(s *Settings, n int) { s.CardFontSize = n }, 8, 48),
	},
	"font_size": {
		get: func(s *Settings) any { return s.FontSize },
		set: choiceSetter(func(s *Settings, v string) { s.FontSize = v }, "small", "medium", "large"),
	},
	"save_history": {
		get: func(s *Settings) any { return s.SaveHistory },
		set: boolSetter(func(s *Settings, b bool) { s.SaveHistory = b }),
	},
	"max_history_sessions": {
		get: func(s *Settings) any { return s.MaxHistorySessions },
		set: intSetter(func(s *Settings, n int) { s.MaxHistorySessions = n }, 0, 100000),
	},
	"shuffle_cards": {
		get: func(s *Settings) any { return s.ShuffleCards },
		set: boolSetter(func(s *Settings, b bool) { s.ShuffleCards = b }),
	},
	"auto_flip": {
		get: func(s *Settings) any { return s.AutoFlip },
		set: boolSetter(func(s *Settings, b bool) { s.AutoFlip = b }),
	},
}

func intSetter(assign func(*Settings, int), min, max int) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", raw)
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		assign(s, n)
		return nil
	}
}

func boolSetter(assign func(*Settings, bool)) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", raw)
		}
		assign(s, b)
		return nil
	}
}

func choiceSetter(assign func(*Settings, string), choices ...string) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		v := strings.ToLower(strings.TrimSpace(raw))
		for _, c := range choices {
			if v == c {
				assign(s, v)
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(choices, ", "))
	}
}

// Keys lists the recognised setting names in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and saves Settings at a fixed path. It is safe for concurrent use.
type Store struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	current   Settings
	listeners []func(Settings)
}

// Open loads the settings file at path. A missing file is created with the
// defaults; a corrupt one is copied to <path>.bak and replaced by defaults.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger, current: Defaults()}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("settings file not found, writing defaults", zap.String("path", s.path))
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("settings file is corrupt, restoring defaults",
			zap.String("path", s.path), zap.Error(err))
		if werr := os.WriteFile(s.path+".bak", data, 0644); werr != nil {
			s.logger.Error("failed to back up corrupt settings", zap.Error(werr))
		}
		s.current = Defaults()
		return s.saveLocked()
	}

	s.current = loaded
	s.logger.Debug("settings loaded", zap.String("path", s.path))
	return nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the active settings
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns the value of a single key
func (s *Store) Get(key string) (any, error) {
	f, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.get(&s.current), nil
}

// Set parses raw for key, validates it and saves the file
func (s *Store) Set(key, raw string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.Update(func(st *Settings) error {
		if err := f.set(st, raw); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return nil
	})
}

// Update applies fn to a copy of the settings and saves the result. Nothing
// changes if fn returns an error.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	next := s.current
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.current
	s.current = next
	if err := s.saveLocked(); err != nil {
		s.current = prev
		s.mu.Unlock()
		return err
	}
	snapshot, listeners := s.current, append([]func(Settings){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}

// Reset restores and saves the defaults
func (s *Store) Reset() error {
	return s.Update(func(st *Settings) error {
		*st = Defaults()
		return nil
	})
}

// Save writes the current settings to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// OnChange registers fn to run after every successful update
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// saveLocked writes to a temp file and renames it over the target
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
