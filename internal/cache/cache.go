// Package cache provides a badger-backed cache for rendered article HTML.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "render:"

// gcInterval is how often the value log is compacted.
const gcInterval = 10 * time.Minute

// RenderCache stores rendered pages keyed by article and a content fingerprint.
// Entries expire after the configured TTL and are dropped per article on mutation.
type RenderCache struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration

	stop     chan struct{}
	wg       sync.WaitGroup
	closeErr error
	once     sync.Once
}

// Open opens (or creates) a render cache in dir.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*RenderCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable Badger's internal logging
	opts.CompactL0OnClose = true
	return open(opts, ttl, logger)
}

// OpenInMemory opens a cache that lives only for the process lifetime.
func OpenInMemory(ttl time.Duration, logger *slog.Logger) (*RenderCache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, ttl, logger)
}

func open(opts badger.Options, ttl time.Duration, logger *slog.Logger) (*RenderCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	c := &RenderCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	if !opts.InMemory {
		c.wg.Add(1)
		go c.gcLoop()
	}
	return c, nil
}

// Key builds the cache key of a rendered article.
func Key(articleID, fingerprint string) []byte {
	return []byte(keyPrefix + articleID + ":" + fingerprint)
}

func articlePrefix(articleID string) []byte {
	return []byte(keyPrefix + articleID + ":")
}

// Get loads the value stored under (articleID, fingerprint) into dest.
// It reports false on a miss or an expired entry.
func (c *RenderCache) Get(ctx context.Context, articleID, fingerprint string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(articleID, fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	return true, nil
}

// Set stores value under (articleID, fingerprint) with the cache TTL.
func (c *RenderCache) Set(ctx context.Context, articleID, fingerprint string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(Key(articleID, fingerprint), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// InvalidateArticle drops every cached rendering of an article.
func (c *RenderCache) InvalidateArticle(articleID string) error {
	if err := c.db.DropPrefix(articlePrefix(articleID)); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", articleID, err)
	}
	return nil
}

// Len returns the number of live entries. Intended for tests and diagnostics.
func (c *RenderCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close stops background GC and closes the database. Safe to call twice.
func (c *RenderCache) Close() error {
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

func (c *RenderCache) gcLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when there is nothing to collect.
			for c.db.RunValueLogGC(0.5) == nil {
			}
			c.logger.Debug("render cache gc complete")
		}
	}
}
