package resident

import (
	"context"

	"github.com/xraph/dues/id"
)

type Store interface {
	Create(ctx context.Context, r *Resident) error
	Get(ctx context.Context, residentID id.ResidentID) (*Resident, error)
	List(ctx context.Context, societyID string, opts ListOpts) ([]*Resident, error)
	Update(ctx context.Context, r *Resident) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
