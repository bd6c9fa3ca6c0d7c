package db

import (
	"context"

	"foodgram/internal/models"
)

// countedTables are the tables reported by TableCounts.
var countedTables = []string{
	"users", "recipes", "ingredients", "tags", "favorites", "cart_recipes", "subscriptions", "short_links",
}

// IncrementShortLinkLookup adds n to a short code lookup count by outcome.
func (d *DB) IncrementShortLinkLookup(ctx context.Context, code, outcome string, n int64) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO short_link_lookups (code, outcome, count, last_seen_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (code, outcome) DO UPDATE
		SET count = short_link_lookups.count + EXCLUDED.count, last_seen_at = NOW()
	`, code, outcome, n)
	return err
}

// GetAllShortLinkLookups returns all lookup rows for metrics export.
func (d *DB) GetAllShortLinkLookups(ctx context.Context) ([]models.ShortLinkLookup, error) {
	rows, err := d.q.Query(ctx, `SELECT code, outcome, count, last_seen_at FROM short_link_lookups`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []models.ShortLinkLookup
	for rows.Next() {
		var l models.ShortLinkLookup
		if err := rows.Scan(&l.Code, &l.Outcome, &l.Count, &l.LastSeenAt); err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}

// TableCounts returns the row count of each domain table.
func (d *DB) TableCounts(ctx context.Context) ([]models.TableCount, error) {
	counts := make([]models.TableCount, 0, len(countedTables))
	for _, table := range countedTables {
		var n int64
		if err := d.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, err
		}
		counts = append(counts, models.TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
