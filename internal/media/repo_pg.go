package media

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new asset.
func (r *PGRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	const query = `
INSERT INTO media_assets (
    id,
    url,
    public_id,
    resource_type,
    format,
    bytes,
    created_by,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
RETURNING created_at, updated_at`

	asset.ID = uuid.NewString()
	var format sql.NullString
	if asset.Format != "" {
		format = sql.NullString{String: asset.Format, Valid: true}
	}

	err := r.DB.QueryRowContext(
		ctx,
		query,
		asset.ID,
		asset.URL,
		asset.StorageKey,
		string(asset.ResourceKind),
		format,
		asset.ByteSize,
		asset.OwnerID,
	).Scan(&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return Asset{}, err
	}
	return asset, nil
}

// GetByID returns one asset.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Asset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Asset{}, ErrNotFound
	}
	const query = `
SELECT id, url, public_id, resource_type, format, bytes, created_by, created_at, updated_at
FROM media_assets
WHERE id = $1
LIMIT 1`
	asset, err := scanAsset(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, err
	}
	return asset, nil
}

// List returns assets newest first, honoring limit/offset. A zero limit means no limit.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Asset, error) {
	if offset < 0 {
		offset = 0
	}
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	const query = `
SELECT id, url, public_id, resource_type, format, bytes, created_by, created_at, updated_at
FROM media_assets
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limitArg, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one asset.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var asset Asset
	var kind string
	var format sql.NullString
	err := row.Scan(
		&asset.ID,
		&asset.URL,
		&asset.StorageKey,
		&kind,
		&format,
		&asset.ByteSize,
		&asset.OwnerID,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return Asset{}, err
	}
	asset.ResourceKind = ResourceKind(kind)
	if format.Valid {
		asset.Format = format.String
	}
	return asset, nil
}

var _ Repo = (*PGRepo)(nil)
