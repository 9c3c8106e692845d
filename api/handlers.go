package api

import (
	"bytes"
	"context"

	"github.com/valyala/fasthttp"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/resident"
)

// pathID parses the id segment of a route. A malformed id is a 400.
func pathID(rc *fasthttp.RequestCtx, raw string, parse func(string) (id.ID, error)) (id.ID, bool) {
	parsed, err := parse(raw)
	if err != nil {
		writeError(rc, fasthttp.StatusBadRequest, "invalid id: "+err.Error(), "id")
		return id.Nil, false
	}
	return parsed, true
}

// queryID parses an optional id query argument.
func queryID(rc *fasthttp.RequestCtx, name string, prefix id.Prefix) (id.ID, bool) {
	parsed, err := id.ParseOptional(string(rc.QueryArgs().Peek(name)), prefix)
	if err != nil {
		writeError(rc, fasthttp.StatusBadRequest, "invalid "+name+": "+err.Error(), name)
		return id.Nil, false
	}
	return parsed, true
}

// ──────────────────────────────────────────────────
// Residents
// ──────────────────────────────────────────────────

func (s *Server) createResident(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	var in dues.CreateResidentInput
	if !decode(rc, &in) {
		return
	}
	r, err := s.engine.CreateResident(ctx, in)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, r)
}

func (s *Server) listResidents(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	limit, offset, ok := paging(rc)
	if !ok {
		return
	}
	list, err := s.engine.ListResidents(ctx, resident.ListOpts{
		Status: resident.Status(rc.QueryArgs().Peek("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, list)
}

func (s *Server) getResident(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	residentID, ok := pathID(rc, segs[1], id.ParseResidentID)
	if !ok {
		return
	}
	r, err := s.engine.GetResident(ctx, residentID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, r)
}

func (s *Server) moveOutResident(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	residentID, ok := pathID(rc, segs[1], id.ParseResidentID)
	if !ok {
		return
	}
	r, err := s.engine.MoveOutResident(ctx, residentID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, r)
}

func (s *Server) listResidentInvoices(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	residentID, ok := pathID(rc, segs[1], id.ParseResidentID)
	if !ok {
		return
	}
	list, err := s.engine.ListInvoicesForCustomer(ctx, residentID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, list)
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

func (s *Server) createInvoice(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	var in dues.CreateInvoiceInput
	if !decode(rc, &in) {
		return
	}
	inv, err := s.engine.CreateInvoice(ctx, in)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, inv)
}

// bulkResponse adds the per-resident failure messages BulkResult keeps out
// of its own JSON form.
type bulkResponse struct {
	*dues.BulkResult
	Partial  bool              `json:"partial"`
	Failures map[string]string `json:"failures,omitempty"`
}

// createInvoicesBulk answers 200 even when some residents failed; the body
// lists them.
func (s *Server) createInvoicesBulk(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	var in dues.BulkInput
	if !decode(rc, &in) {
		return
	}
	res, err := s.engine.CreateInvoicesBulk(ctx, in)
	if err != nil {
		s.fail(rc, err)
		return
	}

	resp := bulkResponse{BulkResult: res, Partial: res.Partial()}
	if len(res.Failures) > 0 {
		resp.Failures = make(map[string]string, len(res.Failures))
		for customer, ferr := range res.Failures {
			resp.Failures[customer] = ferr.Error()
		}
	}
	writeJSON(rc, fasthttp.StatusOK, resp)
}

func (s *Server) listInvoices(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	limit, offset, ok := paging(rc)
	if !ok {
		return
	}
	customerID, ok := queryID(rc, "customer_id", id.PrefixResident)
	if !ok {
		return
	}
	list, err := s.engine.ListInvoices(ctx, invoice.ListOpts{
		Status:     invoice.Status(rc.QueryArgs().Peek("status")),
		CustomerID: customerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, list)
}

func (s *Server) getInvoice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	invID, ok := pathID(rc, segs[1], id.ParseInvoiceID)
	if !ok {
		return
	}
	inv, err := s.engine.GetInvoice(ctx, invID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, inv)
}

type payRequest struct {
	PaymentRef string `json:"payment_ref"`
}

func (s *Server) payInvoice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	invID, ok := pathID(rc, segs[1], id.ParseInvoiceID)
	if !ok {
		return
	}
	var req payRequest
	if len(rc.PostBody()) > 0 && !decode(rc, &req) {
		return
	}
	inv, err := s.engine.MarkInvoicePaid(ctx, invID, req.PaymentRef)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, inv)
}

func (s *Server) exportInvoice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	invID, ok := pathID(rc, segs[1], id.ParseInvoiceID)
	if !ok {
		return
	}
	format := exportFormat(rc)
	var buf bytes.Buffer
	if err := s.engine.ExportInvoice(ctx, invID, format, &buf); err != nil {
		s.fail(rc, err)
		return
	}
	writeDocument(rc, format, buf.Bytes())
}

// ──────────────────────────────────────────────────
// Collections
// ──────────────────────────────────────────────────

func (s *Server) defaulters(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	view, err := s.engine.Defaulters(ctx)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, view)
}

type reminderRequest struct {
	CustomerID id.ResidentID  `json:"customer_id"`
	Channel    notify.Channel `json:"channel"`
	Message    string         `json:"message"`
}

func (s *Server) dispatchReminder(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	var req reminderRequest
	if !decode(rc, &req) {
		return
	}
	res, err := s.engine.DispatchReminder(ctx, req.CustomerID, req.Channel, req.Message)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, res)
}

// ──────────────────────────────────────────────────
// Legal notices
// ──────────────────────────────────────────────────

func (s *Server) createNotice(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	var in dues.CreateNoticeInput
	if !decode(rc, &in) {
		return
	}
	n, err := s.engine.CreateLegalNotice(ctx, in)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, n)
}

func (s *Server) listNotices(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	limit, offset, ok := paging(rc)
	if !ok {
		return
	}
	tenantID, ok := queryID(rc, "tenant_id", id.PrefixResident)
	if !ok {
		return
	}
	invoiceID, ok := queryID(rc, "invoice_id", id.PrefixInvoice)
	if !ok {
		return
	}
	list, err := s.engine.ListLegalNotices(ctx, notice.ListOpts{
		Status:    notice.Status(rc.QueryArgs().Peek("status")),
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, list)
}

func (s *Server) suggestNotice(ctx context.Context, rc *fasthttp.RequestCtx, _ []string) {
	tenantID, ok := queryID(rc, "tenant_id", id.PrefixResident)
	if !ok {
		return
	}
	invoiceID, ok := queryID(rc, "invoice_id", id.PrefixInvoice)
	if !ok {
		return
	}
	letter, err := s.engine.SuggestNotice(ctx, tenantID, invoiceID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, letter)
}

func (s *Server) getNotice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	noticeID, ok := pathID(rc, segs[1], id.ParseNoticeID)
	if !ok {
		return
	}
	n, err := s.engine.GetLegalNotice(ctx, noticeID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, n)
}

func (s *Server) sendNotice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	noticeID, ok := pathID(rc, segs[1], id.ParseNoticeID)
	if !ok {
		return
	}
	n, err := s.engine.SendLegalNotice(ctx, noticeID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, n)
}

func (s *Server) resolveNotice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	noticeID, ok := pathID(rc, segs[1], id.ParseNoticeID)
	if !ok {
		return
	}
	n, err := s.engine.ResolveLegalNotice(ctx, noticeID)
	if err != nil {
		s.fail(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, n)
}

func (s *Server) deleteNotice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	noticeID, ok := pathID(rc, segs[1], id.ParseNoticeID)
	if !ok {
		return
	}
	if err := s.engine.DeleteLegalNotice(ctx, noticeID); err != nil {
		s.fail(rc, err)
		return
	}
	rc.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) exportNotice(ctx context.Context, rc *fasthttp.RequestCtx, segs []string) {
	noticeID, ok := pathID(rc, segs[1], id.ParseNoticeID)
	if !ok {
		return
	}
	format := exportFormat(rc)
	var buf bytes.Buffer
	if err := s.engine.ExportNotice(ctx, noticeID, format, &buf); err != nil {
		s.fail(rc, err)
		return
	}
	writeDocument(rc, format, buf.Bytes())
}

func exportFormat(rc *fasthttp.RequestCtx) string {
	if f := rc.QueryArgs().Peek("format"); len(f) > 0 {
		return string(f)
	}
	return "json"
}

func writeDocument(rc *fasthttp.RequestCtx, format string, body []byte) {
	switch format {
	case "json":
		rc.SetContentType("application/json")
	case "text":
		rc.SetContentType("text/plain; charset=utf-8")
	default:
		rc.SetContentType("application/octet-stream")
	}
	rc.SetStatusCode(fasthttp.StatusOK)
	rc.SetBody(body)
}
