//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/pkg/database"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/cloudemu/engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestInstanceRepository_PostgresUniqueViolation(t *testing.T) {
	logger.UseNop()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cloudemu"),
		postgres.WithUsername("cloudemu"),
		postgres.WithPassword("cloudemu"),
		testcontainers.WithWaitStrategyAndDeadline(3*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	repo := NewInstanceRepository(db)
	require.NoError(t, repo.Create(ctx, newInstance("c1", "ec2-web")))

	err = repo.Create(ctx, newInstance("c2", "ec2-web"))
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict), "got %v", err)

	require.NoError(t, repo.UpdateStatus(ctx, "c1", models.StatusStopped))
	var got models.ComputeInstance
	require.NoError(t, repo.GetByID(ctx, "c1", &got))
	assert.Equal(t, models.StatusStopped, got.Status)
}
