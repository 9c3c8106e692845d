package dues

import (
	"context"
	"strings"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/types"
)

// CreateResidentInput is a new roster entry.
type CreateResidentInput struct {
	Name     string            `json:"name"`
	Flat     string            `json:"flat"`
	Email    string            `json:"email,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateResident adds an active resident to the engine's society.
func (e *Engine) CreateResident(ctx context.Context, in CreateResidentInput) (*resident.Resident, error) {
	r := &resident.Resident{
		Entity:    types.NewEntity(e.now()),
		ID:        id.NewResidentID(),
		SocietyID: e.societyID,
		Name:      strings.TrimSpace(in.Name),
		Flat:      strings.TrimSpace(in.Flat),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Status:    resident.StatusActive,
		Metadata:  in.Metadata,
	}
	if err := validateResident(r); err != nil {
		return nil, err
	}

	if err := e.store.CreateResident(ctx, r); err != nil {
		return nil, err
	}

	e.plugins.EmitResidentCreated(ctx, r)
	return r, nil
}

// GetResident returns a resident of the engine's society.
func (e *Engine) GetResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	r, err := e.store.GetResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if r.SocietyID != e.societyID {
		return nil, ErrResidentNotFound
	}
	return r, nil
}

// ListResidents lists the society roster, oldest first.
func (e *Engine) ListResidents(ctx context.Context, opts resident.ListOpts) ([]*resident.Resident, error) {
	return e.store.ListResidents(ctx, e.societyID, opts)
}

// MoveOutResident marks a resident as moved out. Their invoices and notices
// are kept, but bulk generation skips them from then on.
func (e *Engine) MoveOutResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	r, err := e.GetResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if r.Status == resident.StatusMovedOut {
		return r, nil
	}
	r.Status = resident.StatusMovedOut
	r.Touch(e.now())
	if err := e.store.UpdateResident(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
