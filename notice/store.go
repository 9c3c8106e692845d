package notice

import (
	"context"
	"time"

	"github.com/xraph/dues/id"
)

type Store interface {
	// Create persists n as a draft and assigns its NoticeNumber.
	Create(ctx context.Context, n *Notice) error
	Get(ctx context.Context, noticeID id.NoticeID) (*Notice, error)
	List(ctx context.Context, societyID string, opts ListOpts) ([]*Notice, error)
	// Transition moves a notice from one status to another only if it is
	// still in from. A lost race returns a conflict error.
	Transition(ctx context.Context, noticeID id.NoticeID, from, to Status, at time.Time, dispatchRef string) error
	// DeleteDraft removes a notice that is still a draft.
	DeleteDraft(ctx context.Context, noticeID id.NoticeID) error
}

type ListOpts struct {
	Status    Status
	TenantID  id.ResidentID
	InvoiceID id.InvoiceID
	Limit     int
	Offset    int
}
