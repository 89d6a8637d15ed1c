package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

// ErrUploadNotFound is returned for unknown or expired uploads.
var ErrUploadNotFound = errors.New("upload not found")

// documentStore is the JSON key/value surface shared by the Redis backed
// repositories.
type documentStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UploadKey is the snapshot key for an upload.
func UploadKey(id string) string {
	return "upload:" + id
}

// UploadPattern matches the snapshot and every entry derived from it.
func UploadPattern(id string) string {
	return UploadKey(id) + "*"
}

// MetricsKey is the memoized result key for one upload and filter digest.
func MetricsKey(uploadID, digest string) string {
	return fmt.Sprintf("%s:metrics:%s", UploadKey(uploadID), digest)
}

// UploadRepository keeps raw upload snapshots in the document store.
type UploadRepository struct {
	store documentStore
}

// NewUploadRepository constructs the repository.
func NewUploadRepository(store documentStore) *UploadRepository {
	return &UploadRepository{store: store}
}

// Save stores the snapshot until ttl elapses.
func (r *UploadRepository) Save(ctx context.Context, snapshot *models.UploadSnapshot, ttl time.Duration) error {
	if snapshot == nil || snapshot.Upload.ID == "" {
		return fmt.Errorf("save upload: id required")
	}
	if err := r.store.Set(ctx, UploadKey(snapshot.Upload.ID), snapshot, ttl); err != nil {
		return fmt.Errorf("save upload %s: %w", snapshot.Upload.ID, err)
	}
	return nil
}

// Get loads a snapshot by id.
func (r *UploadRepository) Get(ctx context.Context, id string) (*models.UploadSnapshot, error) {
	var snapshot models.UploadSnapshot
	if err := r.store.Get(ctx, UploadKey(id), &snapshot); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("get upload %s: %w", id, err)
	}
	return &snapshot, nil
}

// Delete drops the snapshot together with every cached entry keyed under it.
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteByPattern(ctx, UploadPattern(id)); err != nil {
		return fmt.Errorf("delete upload %s: %w", id, err)
	}
	return nil
}
