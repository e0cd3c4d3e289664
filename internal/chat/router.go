package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Directory is the view of the registry the router needs.
type Directory interface {
	Lookup(name string) (*Outbox, bool)
	Snapshot() []Member
}

// Censor rewrites chat text before delivery.
type Censor interface {
	Censor(text string) string
}

// Router turns a parsed chat line into writes on recipient outboxes.
// Delivery is best-effort: a failed write to one recipient never stops the rest.
type Router struct {
	censor Censor
	logger *slog.Logger
}

func NewRouter(censor Censor, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{censor: censor, logger: logger}
}

// Route delivers msg from origin. out is the origin's own outbox, used for
// errors and the sender echo of directed messages.
func (r *Router) Route(origin string, out *Outbox, msg Message, dir Directory) {
	start := time.Now()
	eventType := msg.Kind.String()

	switch msg.Kind {
	case KindBroadcast:
		line := formatBroadcast(origin, r.clean(msg.Text))
		for _, m := range dir.Snapshot() {
			r.deliver(m.Name, m.Out, line)
		}
	case KindDirected:
		target, ok := dir.Lookup(msg.Target)
		if !ok {
			eventType = "error"
			r.deliver(origin, out, formatUnknownUser(msg.Target))
			break
		}
		text := r.clean(msg.Text)
		// Sender first, so a self-directed message reads SENDER then TARGET.
		r.deliver(origin, out, formatPrivateSender(origin, text))
		r.deliver(msg.Target, target, formatPrivateTarget(origin, text))
	default:
		eventType = "error"
		r.deliver(origin, out, lineMalformedDirected)
	}

	MessagesTotal.WithLabelValues(eventType).Inc()
	EventProcessingDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
}

func (r *Router) clean(text string) string {
	if r.censor == nil {
		return text
	}
	return r.censor.Censor(text)
}

func (r *Router) deliver(name string, out *Outbox, line string) {
	if out == nil {
		return
	}
	if err := out.Send(line); err != nil {
		level := slog.LevelDebug
		if errors.Is(err, ErrOutboxFull) {
			level = slog.LevelWarn
		}
		r.logger.Log(context.Background(), level, "line not delivered", "recipient", name, "error", err)
	}
}
