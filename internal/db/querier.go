package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the storage interface consumed by services. Mocks for tests
// live in internal/mocks.
type Querier interface {
	CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error)
	GetAPIKeyByKey(ctx context.Context, key string) (ApiKey, error)
	ListAPIKeysByUser(ctx context.Context, userID string) ([]ApiKey, error)
	UpdateAPIKey(ctx context.Context, arg UpdateAPIKeyParams) (int64, error)
	DeleteAPIKey(ctx context.Context, arg DeleteAPIKeyParams) (string, error)
	ReserveAPIKeyUsage(ctx context.Context, key string) (int64, error)
}

var _ Querier = (*Queries)(nil)

// CreateAPIKeyParams holds the insert values for a new key record.
type CreateAPIKeyParams struct {
	ID           uuid.UUID
	Key          string
	Name         string
	UserID       string
	MonthlyLimit int32
}

// UpdateAPIKeyParams holds the mutable fields of a key record. Nil fields
// are left unchanged. Updates are always scoped by (id, user_id).
type UpdateAPIKeyParams struct {
	ID           uuid.UUID
	UserID       string
	Name         *string
	MonthlyLimit *int32
}

// DeleteAPIKeyParams scopes a hard delete by (id, user_id).
type DeleteAPIKeyParams struct {
	ID     uuid.UUID
	UserID string
}
