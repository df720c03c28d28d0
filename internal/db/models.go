package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ApiKey is a row of the api_keys table.
//
// The secret `key` is stored in plaintext because the dashboard lists key
// secrets back to their owner; uniqueness is enforced by a unique index.
// `usage` is only ever mutated through ReserveAPIKeyUsage so the
// check-and-increment stays atomic.
type ApiKey struct {
	ID           uuid.UUID          `json:"id"`
	Key          string             `json:"key"`
	Name         string             `json:"name"`
	UserID       string             `json:"user_id"`
	Usage        int32              `json:"usage"`
	MonthlyLimit int32              `json:"monthly_limit"`
	UsageResetAt pgtype.Timestamptz `json:"usage_reset_at"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
