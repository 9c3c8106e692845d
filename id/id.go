// Package id defines the TypeID-backed identifiers used by every dues entity.
//
// An ID is rendered as "prefix_suffix" where the prefix names the entity kind
// (res, inv, li, ntc, rmd) and the suffix is a UUIDv7 in base32. IDs therefore
// sort by creation time, which the stores rely on for stable listing order.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity kind encoded in an ID.
type Prefix string

const (
	PrefixResident Prefix = "res" // society resident (invoice customer, notice tenant)
	PrefixInvoice  Prefix = "inv" // maintenance invoice
	PrefixLineItem Prefix = "li"  // invoice line item
	PrefixNotice   Prefix = "ntc" // legal demand notice
	PrefixReminder Prefix = "rmd" // reminder dispatch
)

// ID is a prefix-qualified, K-sortable identifier. The zero value is Nil.
//
//nolint:recvcheck // value receivers for reads, pointer receivers for decoding.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// ResidentID identifies a resident (prefix "res").
type ResidentID = ID

// InvoiceID identifies an invoice (prefix "inv").
type InvoiceID = ID

// LineItemID identifies an invoice line item (prefix "li").
type LineItemID = ID

// NoticeID identifies a legal notice (prefix "ntc").
type NoticeID = ID

// ReminderID identifies a reminder dispatch (prefix "rmd").
type ReminderID = ID

// New generates an ID with the given prefix. An invalid prefix is a
// programming error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewResidentID() ID { return New(PrefixResident) }
func NewInvoiceID() ID  { return New(PrefixInvoice) }
func NewLineItemID() ID { return New(PrefixLineItem) }
func NewNoticeID() ID   { return New(PrefixNotice) }
func NewReminderID() ID { return New(PrefixReminder) }

// Parse decodes any valid TypeID string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix decodes s and rejects it unless its prefix is expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

func ParseResidentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixResident) }
func ParseInvoiceID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixInvoice) }
func ParseLineItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLineItem) }
func ParseNoticeID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixNotice) }
func ParseReminderID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReminder) }

// ParseOptional is ParseWithPrefix that maps the empty string to Nil. It is
// used for optional foreign keys such as a notice's invoice link.
func ParseOptional(s string, expected Prefix) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return ParseWithPrefix(s, expected)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}
	return parsed
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the entity prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}
	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input decodes to Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL for optional foreign keys
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
