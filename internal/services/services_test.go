package services

import (
	"context"
	"os"
	"testing"

	"github.com/cloudemu/engine/pkg/logger"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

type mockReaper struct {
	mock.Mock
}

func (m *mockReaper) EnqueueRemoval(ctx context.Context, ref, reason string) error {
	return m.Called(ctx, ref, reason).Error(0)
}
