package config

import "sync"

// Store holds the current settings and persists every update to its file.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// OpenStore loads the settings at path into a new Store.
func OpenStore(path string) (*Store, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, settings: s}, nil
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set replaces the settings in memory without saving them. It is used to
// pick up changes made to the file by someone else.
func (s *Store) Set(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Update applies fn to a copy of the settings and saves the result. The
// settings are unchanged when saving fails.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	fn(&next)
	if err := next.Save(s.path); err != nil {
		return s.settings, err
	}
	s.settings = next
	return next, nil
}
