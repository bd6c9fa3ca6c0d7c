package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"foodgram/internal/models"
)

// ListTags returns every tag ordered by name.
func (d *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := d.q.Query(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanTags(rows)
}

// GetTagByID retrieves a tag by id.
func (d *DB) GetTagByID(ctx context.Context, id int64) (*models.Tag, error) {
	var tag models.Tag
	err := d.q.QueryRow(ctx, `SELECT id, name, slug FROM tags WHERE id = $1`, id).
		Scan(&tag.ID, &tag.Name, &tag.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// UpsertTag creates a tag or renames the tag with the same slug.
func (d *DB) UpsertTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	tag := models.Tag{Name: name, Slug: slug}
	err := d.q.QueryRow(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, slug).Scan(&tag.ID)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// MissingTagIDs returns the ids from the input that do not exist.
func (d *DB) MissingTagIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, d.q, `SELECT id FROM tags WHERE id = ANY($1)`, ids)
}

func scanTags(rows pgx.Rows) ([]models.Tag, error) {
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// missingIDs runs query (which selects the existing subset of $1) and
// returns the input ids that were not found, in input order.
func missingIDs(ctx context.Context, q Querier, query string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
