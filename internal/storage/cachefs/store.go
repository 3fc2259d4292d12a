// Package cachefs implements the file-based response cache for the
// collector, keyed by (symbol, period).
package cachefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

// Store provides file-based JSON caching of collector responses.
// Entries older than the TTL are treated as misses.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *common.Logger
	now    func() time.Time
}

// NewStore creates a cache store rooted at path.
func NewStore(logger *common.Logger, path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache path %s: %w", path, err)
	}

	logger.Info().Str("path", path).Dur("ttl", ttl).Msg("Response cache opened")
	return &Store{
		dir:    path,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// entry wraps a cached response with its storage timestamp.
type entry struct {
	StoredAt time.Time          `json:"stored_at"`
	Data     *models.MarketData `json:"data"`
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) path(symbol string, period models.Period) string {
	key := fmt.Sprintf("%s_%s", strings.ToUpper(symbol), period)
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Get returns the cached response for (symbol, period), or false on
// miss, expiry, or an unreadable entry.
func (s *Store) Get(symbol string, period models.Period) (*models.MarketData, bool) {
	path := s.path(symbol, period)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Data == nil {
		s.logger.Warn().Str("path", path).Msg("Discarding unreadable cache entry")
		os.Remove(path)
		return nil, false
	}

	if s.now().Sub(e.StoredAt) > s.ttl {
		return nil, false
	}

	return e.Data, true
}

// Put stores a response atomically (temp file + rename).
func (s *Store) Put(data *models.MarketData) error {
	e := entry{StoredAt: s.now(), Data: data}

	jsonData, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(data.Symbol, data.Period)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Purge removes all cache entries and returns the count removed.
func (s *Store) Purge() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			count++
		}
	}
	return count
}

// Ensure Store implements ResponseCache
var _ interfaces.ResponseCache = (*Store)(nil)
