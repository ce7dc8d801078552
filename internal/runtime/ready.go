package runtime

import (
	"context"
	"time"

	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

// WaitReady blocks until the runtime answers a ping, ctx ends, or a non-connection
// fault occurs.
func WaitReady(ctx context.Context, a Adapter) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	waiting := false
	for {
		err := a.Ping(ctx)
		if err == nil {
			if waiting {
				logger.L().Info("container runtime reachable")
			}
			return nil
		}
		if !IsUnavailable(err) {
			return err
		}
		if !waiting {
			waiting = true
			logger.L().Warn("waiting for container runtime", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
