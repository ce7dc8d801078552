package testutil

import (
	"context"

	"github.com/cloudemu/engine/internal/runtime"
	"github.com/stretchr/testify/mock"
)

// MockRuntime is a testify double for runtime.Adapter.
type MockRuntime struct {
	mock.Mock
}

var _ runtime.Adapter = (*MockRuntime)(nil)

func (m *MockRuntime) CreateAndStart(ctx context.Context, spec runtime.CreateSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) Start(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockRuntime) Stop(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockRuntime) Remove(ctx context.Context, ref string, force bool) error {
	return m.Called(ctx, ref, force).Error(0)
}

func (m *MockRuntime) Inspect(ctx context.Context, ref string) (runtime.Info, error) {
	args := m.Called(ctx, ref)
	info, _ := args.Get(0).(runtime.Info)
	return info, args.Error(1)
}

func (m *MockRuntime) AttachExec(ctx context.Context, ref string, cmd []string) (runtime.Stream, error) {
	args := m.Called(ctx, ref, cmd)
	if v := args.Get(0); v != nil {
		return v.(runtime.Stream), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRuntime) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
