package dues

import (
	"context"
	"errors"
	"strings"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/types"
)

// CreateNoticeInput is an operator-authored legal notice. Subject and Content
// are stored as given; SuggestNotice can prefill them.
type CreateNoticeInput struct {
	TenantID  id.ResidentID `json:"tenant_id"`
	InvoiceID id.InvoiceID  `json:"invoice_id"`
	Subject   string        `json:"subject"`
	Content   string        `json:"content"`
}

// SuggestNotice fills the demand-letter template for a tenant. With an
// invoice the letter demands that invoice's total; otherwise the amount is
// left as a placeholder for the operator.
func (e *Engine) SuggestNotice(ctx context.Context, tenantID id.ResidentID, invoiceID id.InvoiceID) (notice.Letter, error) {
	res, err := e.GetResident(ctx, tenantID)
	if err != nil {
		return notice.Letter{}, err
	}

	in := notice.DemandLetterInput{
		Society:      e.society,
		ResidentName: res.Name,
		Flat:         res.Flat,
		Date:         e.now(),
	}
	if !invoiceID.IsNil() {
		inv, err := e.GetInvoice(ctx, invoiceID)
		if err != nil {
			return notice.Letter{}, err
		}
		if inv.CustomerID.String() != res.ID.String() {
			return notice.Letter{}, NewValidationError("invoice_id", "invoice belongs to another resident")
		}
		amount := inv.TotalAmount
		in.Amount = &amount
	}
	return notice.ComposeDemandLetter(in), nil
}

// CreateLegalNotice drafts a notice. The store assigns its number.
func (e *Engine) CreateLegalNotice(ctx context.Context, in CreateNoticeInput) (*notice.Notice, error) {
	if in.TenantID.IsNil() {
		return nil, NewValidationError("tenant_id", "is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, NewValidationError("content", "is required")
	}

	res, err := e.GetResident(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if !in.InvoiceID.IsNil() {
		inv, err := e.GetInvoice(ctx, in.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv.CustomerID.String() != res.ID.String() {
			return nil, NewValidationError("invoice_id", "invoice belongs to another resident")
		}
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = notice.ComposeDemandLetter(notice.DemandLetterInput{Flat: res.Flat}).Subject
	}

	n := &notice.Notice{
		Entity:    types.NewEntity(e.now()),
		ID:        id.NewNoticeID(),
		SocietyID: e.societyID,
		TenantID:  res.ID,
		InvoiceID: in.InvoiceID,
		Subject:   subject,
		Content:   content,
		Status:    notice.StatusDraft,
	}
	if err := e.store.CreateNotice(ctx, n); err != nil {
		return nil, err
	}

	e.plugins.EmitNoticeCreated(ctx, n)
	e.logger.Info("legal notice drafted",
		"notice_id", n.ID.String(),
		"notice_number", n.NoticeNumber,
		"tenant_id", res.ID.String(),
	)
	return n, nil
}

// SendLegalNotice emails a draft notice to its tenant. The notice becomes
// sent only once the dispatcher accepts it; a failed dispatch leaves it a
// draft and returns a retryable *DispatchError.
func (e *Engine) SendLegalNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	n, err := e.GetLegalNotice(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	switch n.Status {
	case notice.StatusSent:
		return nil, ErrNoticeAlreadySent
	case notice.StatusResolved:
		return nil, ErrNoticeResolved
	}

	if e.dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	res, err := e.GetResident(ctx, n.TenantID)
	if err != nil {
		return nil, err
	}
	to := res.Contact(string(notify.ChannelEmail))
	if to == "" {
		return nil, ValidationError{Field: "email", Message: "tenant has no email address", Err: ErrRecipientMissing}
	}

	receipt, err := e.dispatcher.Dispatch(ctx, notify.Message{
		Channel:        notify.ChannelEmail,
		To:             to,
		RecipientID:    res.ID.String(),
		Subject:        n.Subject,
		Body:           n.Content,
		IdempotencyKey: n.ID.String(),
		Metadata:       map[string]string{"notice_number": n.NoticeNumber},
	})
	if err != nil {
		e.plugins.EmitDispatchFailed(ctx, res.ID, notify.ChannelEmail, err)
		e.logger.Warn("legal notice dispatch failed",
			"notice_id", n.ID.String(),
			"error", err,
		)
		return nil, &DispatchError{Channel: string(notify.ChannelEmail), Err: err}
	}

	if err := e.store.TransitionNotice(ctx, n.ID, notice.StatusDraft, notice.StatusSent, e.now(), receipt.Ref); err != nil {
		if errors.Is(err, ErrNoticeConflict) {
			e.logger.Warn("legal notice changed during send", "notice_id", n.ID.String())
		}
		return nil, err
	}

	sent, err := e.GetLegalNotice(ctx, n.ID)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitNoticeSent(ctx, sent)
	e.logger.Info("legal notice sent",
		"notice_id", sent.ID.String(),
		"notice_number", sent.NoticeNumber,
		"ref", receipt.Ref,
	)
	return sent, nil
}

// ResolveLegalNotice closes a draft or sent notice.
func (e *Engine) ResolveLegalNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	n, err := e.GetLegalNotice(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if !notice.CanTransition(n.Status, notice.StatusResolved) {
		return nil, ErrNoticeResolved
	}

	if err := e.store.TransitionNotice(ctx, n.ID, n.Status, notice.StatusResolved, e.now(), ""); err != nil {
		return nil, err
	}

	resolved, err := e.GetLegalNotice(ctx, n.ID)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitNoticeResolved(ctx, resolved)
	e.logger.Info("legal notice resolved", "notice_id", resolved.ID.String())
	return resolved, nil
}

// DeleteLegalNotice removes a notice that has not been sent.
func (e *Engine) DeleteLegalNotice(ctx context.Context, noticeID id.NoticeID) error {
	n, err := e.GetLegalNotice(ctx, noticeID)
	if err != nil {
		return err
	}
	if n.Status != notice.StatusDraft {
		return ErrNoticeNotDraft
	}

	if err := e.store.DeleteDraftNotice(ctx, n.ID); err != nil {
		return err
	}

	e.plugins.EmitNoticeDeleted(ctx, n.ID)
	return nil
}

// GetLegalNotice returns a notice of the engine's society.
func (e *Engine) GetLegalNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	n, err := e.store.GetNotice(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if n.SocietyID != e.societyID {
		return nil, ErrNoticeNotFound
	}
	return n, nil
}

// ListLegalNotices lists the society's notices, newest first.
func (e *Engine) ListLegalNotices(ctx context.Context, opts notice.ListOpts) ([]*notice.Notice, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, NewValidationError("status", "unknown notice status "+string(opts.Status))
	}
	return e.store.ListNotices(ctx, e.societyID, opts)
}
