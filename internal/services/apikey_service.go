package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/db"
	"github.com/supercur/supercur-api/internal/keycache"
	"github.com/supercur/supercur-api/internal/logger"
)

const (
	// APIKeyPrefix is the prefix for all issued keys.
	APIKeyPrefix = "sk"

	// MinKeyLength rejects obviously malformed candidates before the
	// store is consulted. Issued keys are "sk_" plus a 36-char UUID.
	MinKeyLength = 32

	// DefaultMonthlyLimit is the usage ceiling assigned at creation.
	DefaultMonthlyLimit int32 = 20
)

// APIKeyService handles key issuance, validation and usage metering.
type APIKeyService struct {
	db    db.Querier
	cache *keycache.Cache
}

// NewAPIKeyService creates a new APIKeyService. The cache may be nil.
func NewAPIKeyService(database db.Querier, cache *keycache.Cache) *APIKeyService {
	return &APIKeyService{
		db:    database,
		cache: cache,
	}
}

// generateAPIKey mints a new secret token. Tokens are never regenerated
// in place; a compromised key is deleted and a new record created.
func generateAPIKey() string {
	return fmt.Sprintf("%s_%s", APIKeyPrefix, uuid.New().String())
}

// CreateAPIKey issues a new key for the owner. The plaintext secret is
// part of the returned record; the dashboard lists secrets back to their
// owner, so there is no separate reveal-once step.
func (s *APIKeyService) CreateAPIKey(ctx context.Context, userID, name string) (db.ApiKey, error) {
	key, err := s.db.CreateAPIKey(ctx, db.CreateAPIKeyParams{
		ID:           uuid.New(),
		Key:          generateAPIKey(),
		Name:         name,
		UserID:       userID,
		MonthlyLimit: DefaultMonthlyLimit,
	})
	if err != nil {
		return db.ApiKey{}, apierror.Wrap(apierror.KindStoreUnavailable, "Failed to create API key", err)
	}
	return key, nil
}

// ListAPIKeys returns the caller's keys, newest first.
func (s *APIKeyService) ListAPIKeys(ctx context.Context, userID string) ([]db.ApiKey, error) {
	keys, err := s.db.ListAPIKeysByUser(ctx, userID)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindStoreUnavailable, "Failed to retrieve API keys", err)
	}
	return keys, nil
}

// UpdateAPIKeyParams carries the mutable fields of a key record.
type UpdateAPIKeyParams struct {
	ID           uuid.UUID
	UserID       string
	Name         *string
	MonthlyLimit *int32
}

// UpdateAPIKey edits name and/or monthly limit, scoped by owner. A miss
// (wrong id or wrong owner) surfaces as KeyNotFound.
func (s *APIKeyService) UpdateAPIKey(ctx context.Context, params UpdateAPIKeyParams) error {
	if params.MonthlyLimit != nil && *params.MonthlyLimit <= 0 {
		return apierror.New(apierror.KindInvalidKeyFormat, "monthly_limit must be positive")
	}

	affected, err := s.db.UpdateAPIKey(ctx, db.UpdateAPIKeyParams{
		ID:           params.ID,
		UserID:       params.UserID,
		Name:         params.Name,
		MonthlyLimit: params.MonthlyLimit,
	})
	if err != nil {
		return apierror.Wrap(apierror.KindStoreUnavailable, "Failed to update API key", err)
	}
	if affected == 0 {
		return apierror.New(apierror.KindKeyNotFound, "API key not found")
	}
	return nil
}

// DeleteAPIKey hard-deletes a record, scoped by owner, and drops the
// secret from the identity cache so a deleted key cannot keep
// authenticating off a stale cache entry.
func (s *APIKeyService) DeleteAPIKey(ctx context.Context, id uuid.UUID, userID string) error {
	key, err := s.db.DeleteAPIKey(ctx, db.DeleteAPIKeyParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apierror.New(apierror.KindKeyNotFound, "API key not found")
		}
		return apierror.Wrap(apierror.KindStoreUnavailable, "Failed to delete API key", err)
	}
	s.cache.Invalidate(ctx, key)
	return nil
}

// Validation is the outcome of a key lookup, carrying the usage fields so
// callers avoid a second round trip.
type Validation struct {
	Valid        bool
	KeyID        uuid.UUID
	UserID       string
	Usage        int32
	MonthlyLimit int32
}

// ValidateKey checks a candidate secret against the store. Format errors
// are rejected before any store access; a missing record is a credential
// error (KeyNotFound), distinct from a store failure (StoreUnavailable).
// The lookup is a pure read and idempotent.
func (s *APIKeyService) ValidateKey(ctx context.Context, candidate string) (Validation, error) {
	if candidate == "" || len(candidate) < MinKeyLength {
		return Validation{}, apierror.New(apierror.KindInvalidKeyFormat, "API key is missing or malformed")
	}

	record, err := s.getByKey(ctx, candidate)
	if err != nil {
		return Validation{}, err
	}

	return Validation{
		Valid:        true,
		KeyID:        record.ID,
		UserID:       record.UserID,
		Usage:        record.Usage,
		MonthlyLimit: record.MonthlyLimit,
	}, nil
}

// ValidateKeyIdentity resolves a candidate secret to its owning user,
// for middleware that only needs the caller's identity.
func (s *APIKeyService) ValidateKeyIdentity(ctx context.Context, candidate string) (string, error) {
	validation, err := s.ValidateKey(ctx, candidate)
	if err != nil {
		return "", err
	}
	return validation.UserID, nil
}

// ValidateKeyForOwner additionally confirms the key belongs to the given
// caller. A legitimate key owned by someone else is ForbiddenOwnership,
// never a silent "invalid".
func (s *APIKeyService) ValidateKeyForOwner(ctx context.Context, candidate, callerID string) (Validation, error) {
	validation, err := s.ValidateKey(ctx, candidate)
	if err != nil {
		return Validation{}, err
	}
	if validation.UserID != callerID {
		return Validation{}, apierror.New(apierror.KindForbiddenOwnership, "API key belongs to a different user")
	}
	return validation, nil
}

// ReserveUsage atomically bills one request against the key's monthly
// quota. The conditional update in the store serializes concurrent
// check-and-increment sequences, so usage never exceeds the limit even
// under racing requests. A committed reservation is never rolled back.
func (s *APIKeyService) ReserveUsage(ctx context.Context, key string) error {
	affected, err := s.db.ReserveAPIKeyUsage(ctx, key)
	if err != nil {
		return apierror.Wrap(apierror.KindStoreUnavailable, "Failed to record API key usage", err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: the key vanished, or the limit is reached. Re-read to
	// report which, with the usage/limit pair for diagnostics.
	record, err := s.getByKey(ctx, key)
	if err != nil {
		return err
	}
	logger.Warn("API key over monthly limit",
		zap.String("key_id", record.ID.String()),
		zap.Int32("usage", record.Usage),
		zap.Int32("monthly_limit", record.MonthlyLimit),
	)
	return apierror.RateLimited(record.Usage, record.MonthlyLimit)
}

// getByKey reads a record through the identity cache. Usage fields are
// always taken from the store, never the cache.
func (s *APIKeyService) getByKey(ctx context.Context, candidate string) (db.ApiKey, error) {
	record, err := s.db.GetAPIKeyByKey(ctx, candidate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.cache.Invalidate(ctx, candidate)
			return db.ApiKey{}, apierror.New(apierror.KindKeyNotFound, "Invalid API key")
		}
		// Fall back to the cached identity so transient store failures do
		// not break bearer authentication outright; metering still fails
		// closed because ReserveUsage always hits the store.
		if entry, ok := s.cache.Get(ctx, candidate); ok {
			logger.Warn("store read failed, serving key identity from cache", zap.Error(err))
			return db.ApiKey{ID: entry.ID, Key: candidate, UserID: entry.UserID}, nil
		}
		return db.ApiKey{}, apierror.Wrap(apierror.KindStoreUnavailable, "Failed to validate API key", err)
	}

	s.cache.Set(ctx, candidate, keycache.Entry{ID: record.ID, UserID: record.UserID})
	return record, nil
}
