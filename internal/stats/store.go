// Package stats persists per-game aggregate statistics as whole-record
// JSON blobs in a key-value store.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gamecenter/internal/logger"
	"gamecenter/internal/metrics"
)

var (
	// ErrNotFound is returned by a Store when no record exists for a key.
	ErrNotFound = errors.New("stats: record not found")
	// ErrCorrupted marks a stored record that does not match the schema.
	ErrCorrupted = errors.New("stats: corrupted record")
)

// Store is a key-value blob store holding one stats record per game id.
// SaveStats overwrites the whole record.
type Store interface {
	LoadStats(ctx context.Context, key string) ([]byte, error)
	SaveStats(ctx context.Context, key string, blob []byte) error
}

// Record is an aggregate stats shape that can check its own invariants.
type Record interface {
	Validate() error
}

// Decode strictly decodes blob into T. Unknown fields, type mismatches,
// trailing data and invariant violations all wrap ErrCorrupted.
func Decode[T Record](blob []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero T
		return zero, fmt.Errorf("%w: trailing data", ErrCorrupted)
	}
	if err := v.Validate(); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return v, nil
}

// Load returns the record stored under key, or defaults when the record is
// missing, unreadable or corrupted. Failures are logged, never returned.
func Load[T Record](ctx context.Context, s Store, key string, defaults T) T {
	blob, err := s.LoadStats(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return defaults
	}
	if err != nil {
		logger.Warn("load stats", "key", key, "err", err)
		return defaults
	}
	v, err := Decode[T](blob)
	if err != nil {
		metrics.StatsCorrupted.WithLabelValues(key).Inc()
		logger.Warn("stats record reset to defaults", "key", key, "err", err)
		return defaults
	}
	return v
}

// Save encodes v and overwrites the record stored under key.
func Save[T Record](ctx context.Context, s Store, key string, v T) error {
	blob, err := json.Marshal(v)
	if err != nil {
		metrics.StatsSaves.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("encode stats %s: %w", key, err)
	}
	if err := s.SaveStats(ctx, key, blob); err != nil {
		metrics.StatsSaves.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("save stats %s: %w", key, err)
	}
	metrics.StatsSaves.WithLabelValues(key, "ok").Inc()
	return nil
}

var (
	keyLocksMu sync.Mutex
	keyLocks   = make(map[string]*sync.Mutex)
)

func lockKey(key string) *sync.Mutex {
	keyLocksMu.Lock()
	defer keyLocksMu.Unlock()
	mu, ok := keyLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		keyLocks[key] = mu
	}
	return mu
}

// Update reloads the record under key, folds it with fold and saves the
// result. Updates to the same key are serialized within the process, so
// concurrent matches of one game never drop each other's rounds. The
// folded record is returned even when the save fails.
func Update[T Record](ctx context.Context, s Store, key string, defaults T, fold func(T) T) (T, error) {
	mu := lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	next := fold(Load(ctx, s, key, defaults))
	return next, Save(ctx, s, key, next)
}
