package repository

import (
	"context"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
)

// ActivityRepository persists activities. Every id-addressed method is
// scoped by the owning user id and reports ErrNotFound both when the id
// does not exist and when it belongs to someone else.
type ActivityRepository interface {
	Create(ctx context.Context, a *entity.Activity) error
	ListByUser(ctx context.Context, userID string) ([]entity.Activity, error)
	Update(ctx context.Context, userID, id string, patch entity.ActivityPatch) (*entity.Activity, error)
	Delete(ctx context.Context, userID, id string) error
	Toggle(ctx context.Context, userID, id string) (*entity.Activity, error)
	CompleteAll(ctx context.Context, userID string) ([]entity.Activity, error)
}
