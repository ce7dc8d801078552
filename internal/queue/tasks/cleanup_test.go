package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/cloudemu/engine/internal/runtime"
	"github.com/cloudemu/engine/internal/testutil"
	"github.com/cloudemu/engine/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if v := args.Get(0); v != nil {
		return v.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestClientEnqueueRemoval(t *testing.T) {
	q := &mockEnqueuer{}
	c := &Client{q: q}

	q.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p RemovePayload
		return task.Type() == TypeRuntimeRemove &&
			json.Unmarshal(task.Payload(), &p) == nil &&
			p.Ref == "cid-1" && p.Reason == "orphan"
	}), mock.Anything).Return(&asynq.TaskInfo{ID: "t1"}, nil).Once()

	require.NoError(t, c.EnqueueRemoval(context.Background(), "cid-1", "orphan"))
	q.AssertExpectations(t)
}

func TestClientEnqueueRemovalError(t *testing.T) {
	q := &mockEnqueuer{}
	c := &Client{q: q}
	q.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

	err := c.EnqueueRemoval(context.Background(), "cid-1", "orphan")
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleRemove(t *testing.T) {
	rt := &testutil.MockRuntime{}
	h := NewRemoveTaskHandler(rt)
	task, err := NewRemoveTask("cid-1", "orphan")
	require.NoError(t, err)

	rt.On("Remove", mock.Anything, "cid-1", true).Return(nil).Once()
	require.NoError(t, h.HandleRemove(context.Background(), task))

	rt.On("Remove", mock.Anything, "cid-1", true).Return(&runtime.Fault{Kind: runtime.KindNotFound, Err: errors.New("gone")}).Once()
	require.NoError(t, h.HandleRemove(context.Background(), task), "a missing object counts as removed")

	rt.On("Remove", mock.Anything, "cid-1", true).Return(&runtime.Fault{Kind: runtime.KindUnavailable, Err: errors.New("down")}).Once()
	assert.Error(t, h.HandleRemove(context.Background(), task))
	rt.AssertExpectations(t)
}

func TestHandleRemoveBadPayloadSkipsRetry(t *testing.T) {
	h := NewRemoveTaskHandler(&testutil.MockRuntime{})
	err := h.HandleRemove(context.Background(), asynq.NewTask(TypeRuntimeRemove, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.HandleRemove(context.Background(), asynq.NewTask(TypeRuntimeRemove, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
