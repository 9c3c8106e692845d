package invoice

import (
	"context"
	"time"

	"github.com/xraph/dues/id"
)

type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	List(ctx context.Context, societyID string, opts ListOpts) ([]*Invoice, error)
	MarkPaid(ctx context.Context, invID id.InvoiceID, paidAt time.Time, paymentRef string) error
}

// ListOpts filters invoice listings.
//
// Status filters on the effective status and is resolved by the engine,
// which translates it into Statuses. Stores only look at Statuses.
type ListOpts struct {
	Status     Status
	Statuses   []Status
	CustomerID id.ResidentID
	From       time.Time // billing period starts on or after
	To         time.Time // billing period ends on or before
	Limit      int
	Offset     int
}
