// Package resident models the flat owners and tenants a society bills.
package resident

import (
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusMovedOut Status = "moved_out"
)

// Resident is a billable occupant of one flat. Invoices call it the customer,
// legal notices call it the tenant.
type Resident struct {
	types.Entity
	ID        id.ResidentID     `json:"id"`
	SocietyID string            `json:"society_id"`
	Name      string            `json:"name"`
	Flat      string            `json:"flat"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Status    Status            `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (r *Resident) IsActive() bool { return r.Status == StatusActive }

// Contact returns the address used for a notification channel, "" if none.
func (r *Resident) Contact(channel string) string {
	switch channel {
	case "email":
		return r.Email
	case "sms", "whatsapp":
		return r.Phone
	default:
		return ""
	}
}
