// Package api exposes a dues Engine over HTTP using fasthttp.
//
// All routes live under a configurable base path (default /dues). Request
// and response bodies are JSON except for text exports.
package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	dues "github.com/xraph/dues"
)

// DefaultBasePath is the route prefix used unless WithBasePath is given.
const DefaultBasePath = "/dues"

// DefaultRequestTimeout bounds the engine work done for one request.
const DefaultRequestTimeout = 30 * time.Second

const maxPageSize = 500

// Server routes HTTP requests to an Engine.
type Server struct {
	engine   *dues.Engine
	basePath string
	logger   *slog.Logger
	base     context.Context
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithBasePath sets the route prefix. "" and "/" mount routes at the root.
func WithBasePath(p string) Option {
	return func(s *Server) {
		s.basePath = strings.TrimRight(p, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithBaseContext sets the context every request context derives from.
// Cancelling it aborts in-flight engine calls.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.base = ctx
	}
}

// WithRequestTimeout bounds each request's engine calls. Zero disables the
// bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// New creates a Server for engine.
func New(engine *dues.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		basePath: DefaultBasePath,
		logger:   slog.Default(),
		base:     context.Background(),
		timeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BasePath returns the route prefix.
func (s *Server) BasePath() string { return s.basePath }

// Handler returns the fasthttp request handler.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.ServeFastHTTP
}

// ServeFastHTTP dispatches one request.
func (s *Server) ServeFastHTTP(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	if s.basePath != "" {
		if path != s.basePath && !strings.HasPrefix(path, s.basePath+"/") {
			s.notFound(ctx)
			return
		}
		path = strings.TrimPrefix(path, s.basePath)
	}

	segs := splitPath(path)
	method := string(ctx.Method())

	h, ok := s.route(method, segs)
	if !ok {
		if s.knownPath(segs) {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		s.notFound(ctx)
		return
	}
	reqCtx, cancel := s.requestContext()
	defer cancel()
	h(reqCtx, ctx, segs)
}

// requestContext derives the context handed to the engine. fasthttp recycles
// its RequestCtx once the handler returns, so engine calls never see it.
func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(s.base, s.timeout)
	}
	return context.WithCancel(s.base)
}

type handlerFunc func(ctx context.Context, rc *fasthttp.RequestCtx, segs []string)

// route matches method and path segments. Path parameters are read back from
// segs by the handler.
func (s *Server) route(method string, segs []string) (handlerFunc, bool) {
	switch len(segs) {
	case 1:
		switch {
		case segs[0] == "healthz" && method == fasthttp.MethodGet:
			return s.health, true
		case segs[0] == "residents" && method == fasthttp.MethodPost:
			return s.createResident, true
		case segs[0] == "residents" && method == fasthttp.MethodGet:
			return s.listResidents, true
		case segs[0] == "invoices" && method == fasthttp.MethodPost:
			return s.createInvoice, true
		case segs[0] == "invoices" && method == fasthttp.MethodGet:
			return s.listInvoices, true
		case segs[0] == "defaulters" && method == fasthttp.MethodGet:
			return s.defaulters, true
		case segs[0] == "notices" && method == fasthttp.MethodPost:
			return s.createNotice, true
		case segs[0] == "notices" && method == fasthttp.MethodGet:
			return s.listNotices, true
		case segs[0] == "reminders" && method == fasthttp.MethodPost:
			return s.dispatchReminder, true
		}
	case 2:
		switch {
		case segs[0] == "invoices" && segs[1] == "bulk" && method == fasthttp.MethodPost:
			return s.createInvoicesBulk, true
		case segs[0] == "notices" && segs[1] == "suggest" && method == fasthttp.MethodGet:
			return s.suggestNotice, true
		case segs[0] == "residents" && method == fasthttp.MethodGet:
			return s.getResident, true
		case segs[0] == "invoices" && method == fasthttp.MethodGet:
			return s.getInvoice, true
		case segs[0] == "notices" && method == fasthttp.MethodGet:
			return s.getNotice, true
		case segs[0] == "notices" && method == fasthttp.MethodDelete:
			return s.deleteNotice, true
		}
	case 3:
		switch {
		case segs[0] == "residents" && segs[2] == "invoices" && method == fasthttp.MethodGet:
			return s.listResidentInvoices, true
		case segs[0] == "residents" && segs[2] == "move-out" && method == fasthttp.MethodPost:
			return s.moveOutResident, true
		case segs[0] == "invoices" && segs[2] == "pay" && method == fasthttp.MethodPost:
			return s.payInvoice, true
		case segs[0] == "invoices" && segs[2] == "export" && method == fasthttp.MethodGet:
			return s.exportInvoice, true
		case segs[0] == "notices" && segs[2] == "send" && method == fasthttp.MethodPost:
			return s.sendNotice, true
		case segs[0] == "notices" && segs[2] == "resolve" && method == fasthttp.MethodPost:
			return s.resolveNotice, true
		case segs[0] == "notices" && segs[2] == "export" && method == fasthttp.MethodGet:
			return s.exportNotice, true
		}
	}
	return nil, false
}

func (s *Server) knownPath(segs []string) bool {
	for _, m := range []string{fasthttp.MethodGet, fasthttp.MethodPost, fasthttp.MethodDelete} {
		if _, ok := s.route(m, segs); ok {
			return true
		}
	}
	return false
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusNotFound, "route not found", "")
}

func (s *Server) health(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	if err := s.engine.Ping(ctx); err != nil {
		writeError(rc, fasthttp.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(rc, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────
// Encoding helpers
// ──────────────────────────────────────────────────

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "encode response: "+err.Error(), "")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg, field string) {
	body, _ := json.Marshal(errorBody{Error: msg, Field: field}) //nolint:errcheck // two strings
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// fail maps an engine error onto a status code and writes it.
func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	status := statusFor(err)
	if status >= fasthttp.StatusInternalServerError && status != fasthttp.StatusBadGateway {
		s.logger.Error("dues api request failed",
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"error", err,
		)
	}

	var ve dues.ValidationError
	field := ""
	if errors.As(err, &ve) {
		field = ve.Field
	}
	writeError(ctx, status, err.Error(), field)
}

func statusFor(err error) int {
	switch {
	case dues.IsValidation(err), errors.Is(err, dues.ErrUnknownFormat):
		return fasthttp.StatusBadRequest
	case dues.IsNotFound(err):
		return fasthttp.StatusNotFound
	case dues.IsConflict(err):
		return fasthttp.StatusConflict
	case errors.Is(err, dues.ErrNoDispatcher):
		return fasthttp.StatusServiceUnavailable
	case dues.IsRetryable(err):
		return fasthttp.StatusBadGateway
	default:
		return fasthttp.StatusInternalServerError
	}
}

// decode reads a JSON body into v. A malformed body is reported as a 400.
func decode(ctx *fasthttp.RequestCtx, v any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "request body is required", "")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return false
	}
	return true
}

// paging reads limit and offset query arguments.
func paging(ctx *fasthttp.RequestCtx) (limit, offset int, ok bool) {
	args := ctx.QueryArgs()
	if v := args.Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 0 {
			writeError(ctx, fasthttp.StatusBadRequest, "limit must be a non-negative integer", "limit")
			return 0, 0, false
		}
		limit = min(n, maxPageSize)
	}
	if v := args.Peek("offset"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 0 {
			writeError(ctx, fasthttp.StatusBadRequest, "offset must be a non-negative integer", "offset")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
