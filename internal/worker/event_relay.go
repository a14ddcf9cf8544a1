package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/realtime"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// runner is implemented by dispatchers that consume a remote channel.
type runner interface {
	Run(ctx context.Context) error
}

// StartEventRelay subscribes the hub to every allocation event. When the dispatcher reads
// from a shared channel, the subscription loop runs in the background and restarts with
// backoff until ctx is cancelled.
func StartEventRelay(ctx context.Context, dispatcher events.Dispatcher, hub *realtime.Hub, logger *zap.Logger) {
	if dispatcher == nil || hub == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, hub.HandleEvent)
	}

	r, ok := dispatcher.(runner)
	if !ok {
		return
	}
	go func() {
		backoff := minBackoff
		for {
			started := time.Now()
			err := r.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			if time.Since(started) > maxBackoff {
				backoff = minBackoff
			}
			logger.Warn("event relay stopped, restarting", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()
}
