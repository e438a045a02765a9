package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/log"
	"cert-maintainer/pkg/utils"
)

const (
	probeKeyPrefix = "probe:"      // Prefix for probe result keys in DB
	probeDBDir     = "probe_cache" // Subdirectory within stateDir for Badger DB files
)

// ProbeEntry is the persisted outcome of a reachability probe for one
// normalized URL.
type ProbeEntry struct {
	Reachable bool      `json:"reachable"`
	Status    int       `json:"status,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// ProbeCache remembers recent probe outcomes across runs in BadgerDB.
// A URL with a fresh entry can skip the network entirely; stale entries
// are simply ignored and overwritten on the next probe.
type ProbeCache struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewProbeCache opens (or creates) the probe cache under stateDir.
func NewProbeCache(stateDir string, logger *logrus.Entry) (*ProbeCache, error) {
	dbPath := filepath.Join(stateDir, probeDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogger(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest probe outcome matters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open probe cache at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	logger.Infof("Probe cache opened at %s", dbPath)
	return &ProbeCache{db: db, log: logger}, nil
}

// Get returns the cached entry for a normalized URL if it is younger
// than maxAge. maxAge <= 0 disables the cache (always miss).
func (c *ProbeCache) Get(normalizedURL string, maxAge time.Duration) (*ProbeEntry, bool) {
	if maxAge <= 0 {
		return nil, false
	}
	key := []byte(probeKeyPrefix + normalizedURL)

	var entry *ProbeEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		return item.Value(func(val []byte) error {
			var decoded ProbeEntry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				// Treat undecodable entries as misses; they get overwritten
				c.log.Warnf("Cannot unmarshal probe entry for '%s': %v", normalizedURL, errJSON)
				return nil
			}
			entry = &decoded
			return nil
		})
	})
	if err != nil {
		c.log.Warnf("Probe cache read failed for '%s': %v", normalizedURL, err)
		return nil, false
	}
	if entry == nil || time.Since(entry.CheckedAt) > maxAge {
		return nil, false
	}
	return entry, true
}

// Put stores the probe outcome for a normalized URL.
func (c *ProbeCache) Put(normalizedURL string, entry ProbeEntry) error {
	key := []byte(probeKeyPrefix + normalizedURL)
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal probe entry JSON for '%s': %w", utils.ErrParsing, normalizedURL, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		return fmt.Errorf("%w: storing probe entry for '%s': %w", utils.ErrDatabase, normalizedURL, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *ProbeCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
