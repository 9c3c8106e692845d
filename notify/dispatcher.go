// Package notify delivers reminders and legal notices to residents.
//
// The engine talks to a Dispatcher. Implementations here cover structured
// logging (development), an HTTP webhook (production gateways) and a router
// that picks an implementation per channel.
package notify

import (
	"context"
	"errors"
	"time"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists the supported channels.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	default:
		return false
	}
}

// ErrNoRoute is returned by a Router with no dispatcher for a channel.
var ErrNoRoute = errors.New("notify: no dispatcher for channel")

// Message is one outbound notification.
type Message struct {
	Channel        Channel           `json:"channel"`
	To             string            `json:"to"`
	RecipientID    string            `json:"recipient_id"`
	Subject        string            `json:"subject,omitempty"`
	Body           string            `json:"body"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"` // redeliveries with the same key are dropped
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Receipt confirms a transport accepted a message.
type Receipt struct {
	Ref        string    `json:"ref"`
	Channel    Channel   `json:"channel"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// Dispatcher hands a message to a transport. A nil error means the
// transport accepted it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) (*Receipt, error)
}

// Func adapts a function to Dispatcher.
type Func func(ctx context.Context, msg Message) (*Receipt, error)

func (f Func) Dispatch(ctx context.Context, msg Message) (*Receipt, error) {
	return f(ctx, msg)
}

// Router dispatches by channel.
type Router struct {
	routes   map[Channel]Dispatcher
	fallback Dispatcher
}

// NewRouter creates a router. fallback may be nil.
func NewRouter(fallback Dispatcher) *Router {
	return &Router{routes: make(map[Channel]Dispatcher), fallback: fallback}
}

// Route sends ch through d.
func (r *Router) Route(ch Channel, d Dispatcher) *Router {
	r.routes[ch] = d
	return r
}

func (r *Router) Dispatch(ctx context.Context, msg Message) (*Receipt, error) {
	if d, ok := r.routes[msg.Channel]; ok {
		return d.Dispatch(ctx, msg)
	}
	if r.fallback != nil {
		return r.fallback.Dispatch(ctx, msg)
	}
	return nil, ErrNoRoute
}
