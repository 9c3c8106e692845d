package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogDispatcher writes messages to a logger instead of delivering them.
// Repeated idempotency keys return the first receipt.
type LogDispatcher struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]*Receipt
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger, seen: make(map[string]*Receipt)}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if msg.IdempotencyKey != "" {
		if r, ok := d.seen[msg.IdempotencyKey]; ok {
			return r, nil
		}
	}

	r := &Receipt{Ref: uuid.NewString(), Channel: msg.Channel, AcceptedAt: time.Now().UTC()}
	if msg.IdempotencyKey != "" {
		d.seen[msg.IdempotencyKey] = r
	}

	d.logger.Info("notification dispatched",
		"channel", msg.Channel,
		"to", msg.To,
		"recipient_id", msg.RecipientID,
		"subject", msg.Subject,
		"ref", r.Ref,
	)
	return r, nil
}
