// Package cache persists rent estimate collections on disk, keyed by the
// listing address, so repeated runs for the same property never touch the
// network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rental-analyzer/models"
	"rental-analyzer/utils"
)

const entryFile = "estimates.json"

// Cache is a directory-per-entry estimate store. The directory name is the
// sha256 of the verbatim address, so path-unsafe characters in free-text
// addresses can never escape the cache root; the human-readable address
// lives inside the entry. Two differently-formatted addresses for the same
// property are distinct entries. Entries never expire and are only ever
// overwritten wholesale.
type Cache struct {
	dir    string
	logger *utils.Logger
}

// New returns a Cache rooted at dir.
func New(dir string, logger *utils.Logger) *Cache {
	return &Cache{dir: dir, logger: logger}
}

// Get looks up the estimate collection for an address. The second return is
// false on a cache miss.
func (c *Cache) Get(address string) (*models.EstimateCollection, bool, error) {
	path := c.entryPath(address)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("[cache] Miss for %q", address)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s: %w", path, err)
	}

	col := &models.EstimateCollection{}
	if err := json.Unmarshal(data, col); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", path, err)
	}

	c.logger.Info("[cache] Hit for %q; %d estimates", address, col.Size())
	return col, true, nil
}

// Put writes a collection under its address, replacing any previous entry.
// The save timestamp is stamped on the stored copy only; the caller's
// collection is left untouched.
func (c *Cache) Put(col *models.EstimateCollection) error {
	path := c.entryPath(col.Address)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cache: create entry dir: %w", err)
	}

	stamped := *col
	stamped.SavedAt = time.Now()
	data, err := json.MarshalIndent(&stamped, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode entry for %q: %w", col.Address, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cache: write %s: %w", path, err)
	}

	c.logger.Info("[cache] Stored %d estimates for %q", col.Size(), col.Address)
	return nil
}

func (c *Cache) entryPath(address string) string {
	sum := sha256.Sum256([]byte(address))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]), entryFile)
}
