package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
)

// SupportedStore is the persisted list of feed-supported currency symbols.
// The set is self-pruning: the oracle rewrites it when symbols stop resolving
// against the price feed, and the trust-line watcher grows it when a new
// currency shows up. Order is preserved as written.
type SupportedStore struct {
	path string

	mu      sync.Mutex
	symbols []string
}

// supportedFile is the on-disk document shape.
type supportedFile struct {
	Supported []string `json:"supported"`
}

// LoadSupported reads the store from path. A missing file yields an empty
// store; the file appears on the first write.
func LoadSupported(path string) (*SupportedStore, error) {
	store := &SupportedStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read supported list: %w", err)
	}

	var doc supportedFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse supported list %s: %w", path, err)
	}
	store.symbols = doc.Supported
	return store, nil
}

// Symbols returns a copy of the current list.
func (s *SupportedStore) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.symbols)
}

// Contains reports whether symbol is in the list.
func (s *SupportedStore) Contains(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.symbols, symbol)
}

// Add appends symbol and persists the list. Reports whether the list changed.
func (s *SupportedStore) Add(symbol string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.symbols, symbol) {
		return false, nil
	}
	s.symbols = append(s.symbols, symbol)
	return true, s.save()
}

// Replace swaps in a new list, persisting only when it differs.
func (s *SupportedStore) Replace(symbols []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Equal(s.symbols, symbols) {
		return false, nil
	}
	s.symbols = slices.Clone(symbols)
	return true, s.save()
}

// save writes the list to disk. Caller holds the lock.
func (s *SupportedStore) save() error {
	doc := supportedFile{Supported: s.symbols}
	if doc.Supported == nil {
		doc.Supported = []string{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode supported list: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write supported list: %w", err)
	}
	return nil
}
