package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	e "github.com/hvidsten/skylight/internal/errors"
)

var boltBucket = []byte("cache")

type boltEntry struct {
	Entry
	ExpiresAt time.Time `json:"expiresAt"`
}

type boltTier struct {
	db      *bolt.DB
	nowFunc func() time.Time
}

// NewBoltTier opens (or creates) the on-disk tier at path. The file
// survives process restarts, which is the point of this tier.
func NewBoltTier(path string, nowFunc func() time.Time) (Tier, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt database at %s: %w", e.ErrTierUnavailable, path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create bucket: %w", e.ErrTierUnavailable, err)
	}

	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &boltTier{db: db, nowFunc: nowFunc}, nil
}

func (t *boltTier) Name() string {
	return "file"
}

func (t *boltTier) Get(ctx context.Context, key string) (Entry, error) {
	var stored boltEntry
	found := false

	err := t.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boltBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &stored); err != nil {
			// Corrupt entry, treat as a miss
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bolt get: %w", e.ErrTierUnavailable, err)
	}

	if !found {
		return Entry{}, ErrEntryNotFound
	}
	if t.nowFunc().After(stored.ExpiresAt) {
		// Past the retention horizon, purge lazily
		_ = t.Delete(ctx, key)
		return Entry{}, ErrEntryNotFound
	}
	return stored.Entry, nil
}

func (t *boltTier) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(boltEntry{
		Entry:     entry,
		ExpiresAt: t.nowFunc().Add(entry.Retention()),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	err = t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: bolt put: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *boltTier) Delete(ctx context.Context, key string) error {
	err := t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: bolt delete: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *boltTier) Clear(ctx context.Context) error {
	err := t.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(boltBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: bolt clear: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *boltTier) Len(ctx context.Context) (int, error) {
	count := 0
	err := t.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(boltBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: bolt stats: %w", e.ErrTierUnavailable, err)
	}
	return count, nil
}

// Close releases the underlying database file.
func (t *boltTier) Close() error {
	return t.db.Close()
}
