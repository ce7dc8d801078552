package repository

import (
	"context"

	"github.com/cloudemu/engine/internal/models"
	"gorm.io/gorm"
)

// InstanceRepository stores compute instance metadata.
type InstanceRepository interface {
	BaseRepository[models.ComputeInstance]
	GetByIdentifier(ctx context.Context, identifier string, dest *models.ComputeInstance) error
	UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error
}

type instanceRepository struct {
	BaseRepository[models.ComputeInstance]
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{BaseRepository: NewBaseRepository[models.ComputeInstance](db), db: db}
}

func (r *instanceRepository) GetByIdentifier(ctx context.Context, identifier string, dest *models.ComputeInstance) error {
	return getByField(ctx, r.db, "identifier", identifier, dest)
}

func (r *instanceRepository) UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error {
	return updateStatus[models.ComputeInstance](ctx, r.db, id, status)
}
