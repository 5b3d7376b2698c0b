// Package storage persists accepted records and answers dedup queries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_records (
    id           BIGSERIAL PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    body_text    TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    source_name  TEXT NOT NULL,
    content_type TEXT NOT NULL,
    published_at TIMESTAMPTZ NOT NULL,
    images       TEXT[] NOT NULL DEFAULT '{}',
    videos       TEXT[] NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresRepository stores records in PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewPostgresRepository connects, pings and ensures the schema.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Exists reports whether the URL has already been processed.
func (r *PostgresRepository) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := r.sb.
		Select("1").
		From("news_records").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Insert stores the record and returns the assigned id. Media references are
// stored as local artifact paths.
func (r *PostgresRepository) Insert(ctx context.Context, url string, record domain.ContentRecord) (int64, error) {
	images := make([]string, 0, len(record.Images))
	for _, ref := range record.Images {
		images = append(images, ref.LocalPath)
	}
	videos := make([]string, 0, len(record.Videos))
	for _, ref := range record.Videos {
		videos = append(videos, ref.LocalPath)
	}

	query, args, err := r.sb.
		Insert("news_records").
		Columns("url", "title", "description", "body_text", "author",
			"source_name", "content_type", "published_at", "images", "videos").
		Values(url, record.Title, record.Description, record.BodyText, record.Author,
			record.SourceName, record.ContentType, record.PublishedAt,
			pq.StringArray(images), pq.StringArray(videos)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
