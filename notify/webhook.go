package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookDispatcher POSTs each message as JSON to a gateway URL. Any 2xx
// response counts as accepted. The gateway may return {"ref": "..."}; when it
// does not, a random ref is generated.
type WebhookDispatcher struct {
	url     string
	secret  string
	timeout time.Duration
	client  *fasthttp.Client
}

type WebhookOption func(*WebhookDispatcher)

// WithWebhookSecret sends secret as a bearer token.
func WithWebhookSecret(secret string) WebhookOption {
	return func(w *WebhookDispatcher) { w.secret = secret }
}

func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(w *WebhookDispatcher) { w.timeout = d }
}

// WithWebhookClient replaces the fasthttp client, e.g. to dial in-memory.
func WithWebhookClient(c *fasthttp.Client) WebhookOption {
	return func(w *WebhookDispatcher) { w.client = c }
}

func NewWebhookDispatcher(url string, opts ...WebhookOption) *WebhookDispatcher {
	w := &WebhookDispatcher{
		url:     url,
		timeout: defaultWebhookTimeout,
		client:  &fasthttp.Client{Name: "dues-notify"},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhookResponse struct {
	Ref string `json:"ref"`
}

func (w *WebhookDispatcher) Dispatch(ctx context.Context, msg Message) (*Receipt, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("notify/webhook: encode message: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if msg.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", msg.IdempotencyKey)
	}
	if w.secret != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+w.secret)
	}
	req.SetBody(body)

	deadline := time.Now().Add(w.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("notify/webhook: post: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("notify/webhook: gateway returned %d: %s", status, truncate(resp.Body(), 200))
	}

	var out webhookResponse
	if b := resp.Body(); len(b) > 0 {
		_ = json.Unmarshal(b, &out) //nolint:errcheck // ref is optional
	}
	if out.Ref == "" {
		out.Ref = uuid.NewString()
	}
	return &Receipt{Ref: out.Ref, Channel: msg.Channel, AcceptedAt: time.Now().UTC()}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
