package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudemu/engine/internal/runtime"
	"github.com/cloudemu/engine/pkg/logger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TypeRuntimeRemove force-removes a runtime object no record points at.
	TypeRuntimeRemove = "runtime:remove"

	QueueCleanup = "cleanup"
)

// RemovePayload is the task payload for runtime removal tasks.
type RemovePayload struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

func NewRemoveTask(ref, reason string) (*asynq.Task, error) {
	b, err := json.Marshal(RemovePayload{Ref: ref, Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRuntimeRemove, b), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues cleanup tasks. It satisfies services.OrphanReaper.
type Client struct {
	q enqueuer
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{q: asynq.NewClient(opt)}
}

func (c *Client) EnqueueRemoval(ctx context.Context, ref, reason string) error {
	task, err := NewRemoveTask(ref, reason)
	if err != nil {
		return fmt.Errorf("build remove task: %w", err)
	}
	info, err := c.q.EnqueueContext(ctx, task,
		asynq.Queue(QueueCleanup),
		asynq.MaxRetry(10),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue remove task: %w", err)
	}
	logger.L().Info("runtime removal queued", zap.String("runtime_id", ref), zap.String("task_id", info.ID), zap.String("reason", reason))
	return nil
}

func (c *Client) Close() error {
	if cl, ok := c.q.(*asynq.Client); ok {
		return cl.Close()
	}
	return nil
}

// RemoveTaskHandler executes runtime removal tasks.
type RemoveTaskHandler struct {
	rt runtime.Adapter
}

func NewRemoveTaskHandler(rt runtime.Adapter) *RemoveTaskHandler {
	return &RemoveTaskHandler{rt: rt}
}

func (h *RemoveTaskHandler) HandleRemove(ctx context.Context, t *asynq.Task) error {
	var p RemovePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid remove task payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if p.Ref == "" {
		return fmt.Errorf("remove task without ref: %w", asynq.SkipRetry)
	}

	logger.L().Info("handling remove task", zap.String("runtime_id", p.Ref), zap.String("reason", p.Reason))
	if err := h.rt.Remove(ctx, p.Ref, true); err != nil {
		if runtime.IsNotFound(err) {
			logger.L().Info("runtime object already gone", zap.String("runtime_id", p.Ref))
			return nil
		}
		logger.L().Warn("remove task failed", zap.String("runtime_id", p.Ref), zap.Error(err))
		return err
	}
	logger.L().Info("runtime object removed", zap.String("runtime_id", p.Ref))
	return nil
}

// Register wires the handlers into mux.
func (h *RemoveTaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRuntimeRemove, h.HandleRemove)
}
