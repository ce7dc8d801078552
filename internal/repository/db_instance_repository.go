package repository

import (
	"context"

	"github.com/cloudemu/engine/internal/models"
	"gorm.io/gorm"
)

// DBInstanceRepository stores database instance metadata.
type DBInstanceRepository interface {
	BaseRepository[models.DatabaseInstance]
	GetByIdentifier(ctx context.Context, identifier string, dest *models.DatabaseInstance) error
	UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error
}

type dbInstanceRepository struct {
	BaseRepository[models.DatabaseInstance]
	db *gorm.DB
}

func NewDBInstanceRepository(db *gorm.DB) DBInstanceRepository {
	return &dbInstanceRepository{BaseRepository: NewBaseRepository[models.DatabaseInstance](db), db: db}
}

func (r *dbInstanceRepository) GetByIdentifier(ctx context.Context, identifier string, dest *models.DatabaseInstance) error {
	return getByField(ctx, r.db, "identifier", identifier, dest)
}

func (r *dbInstanceRepository) UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error {
	return updateStatus[models.DatabaseInstance](ctx, r.db, id, status)
}
