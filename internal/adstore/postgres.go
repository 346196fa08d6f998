package adstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// Querier is the subset of database.DB the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore reads the ads table directly over a pgx pool.
type PostgresStore struct {
	db     Querier
	table  string
	logger *slog.Logger
}

func NewPostgresStore(db Querier, table string, logger *slog.Logger) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{
		db:     db,
		table:  table,
		logger: logger.With("component", "postgres_store"),
	}
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]models.Ad, error) {
	sql, args := listQuery(s.table, q)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ads: %w", err)
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		var ad models.Ad
		err := rows.Scan(
			&ad.ID, &ad.Title, &ad.Price, &ad.Category, &ad.PropertyType,
			&ad.Location, &ad.Surface, &ad.Description, &ad.Contact,
			&ad.PublicationDate, &ad.URL, &ad.SourceWebsite, &ad.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ads: %w", err)
	}

	s.logger.Debug("rows fetched", "count", len(ads))
	return ads, nil
}

// listQuery builds the parameterised SELECT for q.
func listQuery(table string, q Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if q.PropertyType != "" {
		add("property_type = ?", q.PropertyType)
	}
	if q.Location != "" {
		add("location = ?", q.Location)
	}
	if q.MinPrice != nil {
		add("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add("price <= ?", *q.MaxPrice)
	}
	if q.CreatedAfter != nil {
		add("created_at >= ?", *q.CreatedAfter)
	}

	var b strings.Builder
	b.WriteString(`SELECT id::text, COALESCE(title, ''), price::float8, COALESCE(category, ''),
	property_type, location, surface::float8, description, contact,
	publication_date, COALESCE(url, ''), COALESCE(source_website, ''), created_at
FROM `)
	b.WriteString(pgx.Identifier{table}.Sanitize())
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY created_at DESC")

	return b.String(), args
}
