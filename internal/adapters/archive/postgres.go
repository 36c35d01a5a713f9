package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hvidsten/skylight/internal/domain"
	"github.com/hvidsten/skylight/internal/reporting"
)

type PostgresFetchArchive struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresFetchArchive(db *sqlx.DB, schema string) *PostgresFetchArchive {
	return &PostgresFetchArchive{db: db, schema: schema}
}

type dbFetchLogEntry struct {
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	CacheKey   string    `db:"cache_key"`
	Source     string    `db:"source"`
	Origin     string    `db:"origin"`
	Success    bool      `db:"success"`
	Error      string    `db:"error"`
	DurationMS int64     `db:"duration_ms"`
	FetchedAt  time.Time `db:"fetched_at"`
}

func (a *PostgresFetchArchive) RecordFetch(ctx context.Context, event FetchEvent) error {
	id := event.ID
	if id == "" {
		id = uuid.New().String()
	}

	txx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(a.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": a.schema,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO fetch_log
		(id, kind, cache_key, source, origin, success, error, duration_ms, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		string(event.Kind),
		event.CacheKey,
		event.Source,
		event.Origin,
		event.Success,
		event.Error,
		event.Duration.Milliseconds(),
		event.FetchedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert fetch_log entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"kind":     string(event.Kind),
			"cacheKey": event.CacheKey,
		})
		return err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}

func (a *PostgresFetchArchive) RecentFetches(ctx context.Context, kind domain.Kind, limit int) ([]FetchEvent, error) {
	if limit < 1 {
		limit = 20
	}

	txx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(a.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": a.schema,
		})
		return nil, err
	}

	var entries []dbFetchLogEntry
	err = txx.SelectContext(
		ctx,
		&entries,
		`SELECT id, kind, cache_key, source, origin, success, error, duration_ms, fetched_at
		FROM fetch_log
		WHERE kind = $1
		ORDER BY fetched_at DESC
		LIMIT $2`,
		string(kind),
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select fetch_log entries: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"kind": string(kind),
		})
		return nil, err
	}

	events := make([]FetchEvent, 0, len(entries))
	for _, entry := range entries {
		events = append(events, FetchEvent{
			ID:        entry.ID,
			Kind:      domain.Kind(entry.Kind),
			CacheKey:  entry.CacheKey,
			Source:    entry.Source,
			Origin:    entry.Origin,
			Success:   entry.Success,
			Error:     entry.Error,
			Duration:  time.Duration(entry.DurationMS) * time.Millisecond,
			FetchedAt: entry.FetchedAt,
		})
	}

	return events, nil
}
