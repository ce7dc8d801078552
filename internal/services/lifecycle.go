package services

import (
	"context"
	"time"

	"github.com/cloudemu/engine/internal/events"
	"github.com/cloudemu/engine/internal/lock"
	"github.com/cloudemu/engine/internal/metrics"
	"github.com/cloudemu/engine/internal/runtime"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

const (
	kindCompute  = "ec2"
	kindDatabase = "rds"

	labelKind       = "cloudemu.kind"
	labelIdentifier = "cloudemu.identifier"
)

// OrphanReaper schedules background removal of runtime objects that no
// metadata record points at.
type OrphanReaper interface {
	EnqueueRemoval(ctx context.Context, ref, reason string) error
}

// Lifecycle bundles the collaborators shared by the lifecycle controllers.
// Runtime is required; the rest fall back to in-process or no-op defaults.
type Lifecycle struct {
	Runtime runtime.Adapter
	Locker  lock.Locker
	Events  events.Publisher
	Metrics *metrics.Metrics
	Reaper  OrphanReaper
	// CleanupOrphans removes database containers whose port could not be
	// introspected instead of leaving them for the caller.
	CleanupOrphans bool
}

func (l Lifecycle) withDefaults() Lifecycle {
	if l.Locker == nil {
		l.Locker = lock.NewLocal()
	}
	if l.Events == nil {
		l.Events = events.Nop{}
	}
	return l
}

func (l Lifecycle) observe(kind, op string, start time.Time, err error) {
	l.Metrics.ObserveLifecycle(kind, op, time.Since(start).Seconds(), err)
}

func (l Lifecycle) publish(ctx context.Context, kind, op, id, identifier, status string) {
	l.Events.Publish(ctx, events.Event{
		Kind:       kind,
		Op:         op,
		ID:         id,
		Identifier: identifier,
		Status:     status,
		At:         time.Now().UTC(),
	})
}

// discard force-removes a runtime object that no record will point at. If the
// removal fails the object is handed to the reaper when one is configured.
func (l Lifecycle) discard(ctx context.Context, ref, reason string) {
	ctx = context.WithoutCancel(ctx)
	err := l.Runtime.Remove(ctx, ref, true)
	if err == nil || runtime.IsNotFound(err) {
		logger.L().Info("discarded runtime object", zap.String("runtime_id", ref), zap.String("reason", reason))
		return
	}
	logger.L().Warn("discard runtime object failed", zap.String("runtime_id", ref), zap.String("reason", reason), zap.Error(err))
	if l.Reaper == nil {
		return
	}
	if err := l.Reaper.EnqueueRemoval(ctx, ref, reason); err != nil {
		logger.L().Error("enqueue runtime removal failed", zap.String("runtime_id", ref), zap.Error(err))
	}
}

func runtimeFault(err error, message string) error {
	return appErr.Wrap(err, appErr.CodeRuntime, message)
}

func labels(kind, identifier string) map[string]string {
	return map[string]string{labelKind: kind, labelIdentifier: identifier}
}
