package dues

import (
	"context"
	"strings"
	"time"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/notify"
)

// ReminderResult reports one reminder attempt.
type ReminderResult struct {
	ID        id.ReminderID  `json:"id"`
	Delivered bool           `json:"delivered"`
	Ref       string         `json:"ref,omitempty"`
	Channel   notify.Channel `json:"channel"`
	At        time.Time      `json:"at"`
}

// DispatchReminder sends a free-form reminder to a resident. A transport
// failure returns the undelivered result together with a *DispatchError.
func (e *Engine) DispatchReminder(ctx context.Context, customerID id.ResidentID, channel notify.Channel, message string) (*ReminderResult, error) {
	if !channel.Valid() {
		return nil, ValidationError{Field: "channel", Message: "unsupported channel " + string(channel), Err: ErrUnsupportedChannel}
	}
	body := strings.TrimSpace(message)
	if body == "" {
		return nil, NewValidationError("message", "is required")
	}
	if e.dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	res, err := e.GetResident(ctx, customerID)
	if err != nil {
		return nil, err
	}
	to := res.Contact(string(channel))
	if to == "" {
		return nil, ValidationError{Field: "channel", Message: "resident has no address for " + string(channel), Err: ErrRecipientMissing}
	}

	result := &ReminderResult{ID: id.NewReminderID(), Channel: channel, At: e.now()}

	receipt, err := e.dispatcher.Dispatch(ctx, notify.Message{
		Channel:        channel,
		To:             to,
		RecipientID:    res.ID.String(),
		Subject:        "Maintenance dues reminder",
		Body:           body,
		IdempotencyKey: result.ID.String(),
	})
	if err != nil {
		e.plugins.EmitDispatchFailed(ctx, res.ID, channel, err)
		e.logger.Warn("reminder dispatch failed",
			"customer_id", res.ID.String(),
			"channel", string(channel),
			"error", err,
		)
		return result, &DispatchError{Channel: string(channel), Err: err}
	}

	result.Delivered = true
	result.Ref = receipt.Ref

	e.plugins.EmitReminderDispatched(ctx, res.ID, receipt)
	e.logger.Info("reminder dispatched",
		"customer_id", res.ID.String(),
		"channel", string(channel),
		"ref", receipt.Ref,
	)
	return result, nil
}
