package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/wordwise/wordwise/pkg/events"
)

// Router implements queue.SubscribeWorker. It fans each event read from the
// queue out to the enabled listeners whose filter matches.
type Router struct {
	Store     Store
	Deliverer *Deliverer
}

// Handle is called by frame's pub/sub for each event message.
func (r *Router) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("listener router: unmarshal envelope")
		return err
	}
	// Test deliveries go straight to one listener and never through the queue.
	if env.Type == events.ListenerTest {
		return nil
	}

	listeners, err := r.Store.EnabledListeners(ctx)
	if err != nil {
		util.Log(ctx).WithError(err).Error("listener router: list listeners")
		return err
	}

	for _, l := range listeners {
		if !l.Events.Matches(env.Type) {
			continue
		}
		if err := r.Deliverer.Enqueue(ctx, l, env); err != nil {
			slog.WarnContext(ctx, "listener delivery dropped",
				slog.String("listener_id", l.ID),
				slog.String("event_type", string(env.Type)),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
