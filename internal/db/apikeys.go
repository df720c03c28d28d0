package db

import (
	"context"
)

const createAPIKey = `
INSERT INTO api_keys (id, key, name, user_id, usage, monthly_limit, usage_reset_at, created_at)
VALUES ($1, $2, $3, $4, 0, $5, now(), now())
RETURNING id, key, name, user_id, usage, monthly_limit, usage_reset_at, created_at
`

// CreateAPIKey inserts a new key record and returns the stored row.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	row := q.db.QueryRow(ctx, createAPIKey,
		arg.ID,
		arg.Key,
		arg.Name,
		arg.UserID,
		arg.MonthlyLimit,
	)
	var k ApiKey
	err := row.Scan(
		&k.ID,
		&k.Key,
		&k.Name,
		&k.UserID,
		&k.Usage,
		&k.MonthlyLimit,
		&k.UsageResetAt,
		&k.CreatedAt,
	)
	return k, err
}

const getAPIKeyByKey = `
SELECT id, key, name, user_id, usage, monthly_limit, usage_reset_at, created_at
FROM api_keys
WHERE key = $1
`

// GetAPIKeyByKey looks up a record by its secret token. Returns
// pgx.ErrNoRows when no record matches.
func (q *Queries) GetAPIKeyByKey(ctx context.Context, key string) (ApiKey, error) {
	row := q.db.QueryRow(ctx, getAPIKeyByKey, key)
	var k ApiKey
	err := row.Scan(
		&k.ID,
		&k.Key,
		&k.Name,
		&k.UserID,
		&k.Usage,
		&k.MonthlyLimit,
		&k.UsageResetAt,
		&k.CreatedAt,
	)
	return k, err
}

const listAPIKeysByUser = `
SELECT id, key, name, user_id, usage, monthly_limit, usage_reset_at, created_at
FROM api_keys
WHERE user_id = $1
ORDER BY created_at DESC
`

// ListAPIKeysByUser returns all keys owned by the user, newest first.
func (q *Queries) ListAPIKeysByUser(ctx context.Context, userID string) ([]ApiKey, error) {
	rows, err := q.db.Query(ctx, listAPIKeysByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ApiKey
	for rows.Next() {
		var k ApiKey
		if err := rows.Scan(
			&k.ID,
			&k.Key,
			&k.Name,
			&k.UserID,
			&k.Usage,
			&k.MonthlyLimit,
			&k.UsageResetAt,
			&k.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

const updateAPIKey = `
UPDATE api_keys
SET name          = COALESCE($3, name),
    monthly_limit = COALESCE($4, monthly_limit)
WHERE id = $1 AND user_id = $2
`

// UpdateAPIKey applies the non-nil fields and reports the affected row
// count. Zero rows means the key does not exist or belongs to another user.
func (q *Queries) UpdateAPIKey(ctx context.Context, arg UpdateAPIKeyParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateAPIKey,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.MonthlyLimit,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteAPIKey = `
DELETE FROM api_keys
WHERE id = $1 AND user_id = $2
RETURNING key
`

// DeleteAPIKey hard-deletes a record scoped by owner and returns the
// deleted secret so callers can drop cached lookups for it. Returns
// pgx.ErrNoRows when nothing matched.
func (q *Queries) DeleteAPIKey(ctx context.Context, arg DeleteAPIKeyParams) (string, error) {
	var key string
	err := q.db.QueryRow(ctx, deleteAPIKey, arg.ID, arg.UserID).Scan(&key)
	return key, err
}

// The reservation statement folds two things into one atomic update so
// concurrent requests can never double-spend the last unit of quota:
//   - if the monthly window has lapsed, usage restarts at 1 and the window
//     advances to now();
//   - otherwise the increment only lands while usage < monthly_limit.
//
// Zero affected rows means either the key does not exist or the limit is
// reached; callers disambiguate with GetAPIKeyByKey.
const reserveAPIKeyUsage = `
UPDATE api_keys
SET usage = CASE
        WHEN usage_reset_at <= now() - interval '1 month' THEN 1
        ELSE usage + 1
    END,
    usage_reset_at = CASE
        WHEN usage_reset_at <= now() - interval '1 month' THEN now()
        ELSE usage_reset_at
    END
WHERE key = $1
  AND (usage < monthly_limit OR usage_reset_at <= now() - interval '1 month')
`

// ReserveAPIKeyUsage bills one request against the key's monthly quota.
func (q *Queries) ReserveAPIKeyUsage(ctx context.Context, key string) (int64, error) {
	tag, err := q.db.Exec(ctx, reserveAPIKeyUsage, key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
