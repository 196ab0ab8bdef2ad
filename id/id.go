// Package id defines TypeID-based identity types for fundme entities.
//
// Ledgers, receipts and published events share a single ID struct whose
// prefix names the entity type. IDs are K-sortable (UUIDv7-based) and
// render as "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for fundme entity types.
const (
	PrefixLedger       Prefix = "fund" // Ledger instance
	PrefixContribution Prefix = "ctb"  // Contribution receipt
	PrefixWithdrawal   Prefix = "wdr"  // Withdrawal receipt
	PrefixEvent        Prefix = "evt"  // Published ledger event
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "ctb_01h2xcejqtf2nbrexx3vqjhp41".
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

// ParseWithPrefix parses s and checks that its prefix is expected.
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

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// LedgerID identifies a Ledger (prefix: "fund").
type LedgerID = ID

// ContributionID identifies a contribution receipt (prefix: "ctb").
type ContributionID = ID

// WithdrawalID identifies a withdrawal receipt (prefix: "wdr").
type WithdrawalID = ID

// EventID identifies a published event (prefix: "evt").
type EventID = ID

// NewLedgerID generates a new ledger ID.
func NewLedgerID() ID { return New(PrefixLedger) }

// NewContributionID generates a new contribution receipt ID.
func NewContributionID() ID { return New(PrefixContribution) }

// NewWithdrawalID generates a new withdrawal receipt ID.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewEventID generates a new event ID.
func NewEventID() ID { return New(PrefixEvent) }

// ParseLedgerID parses s and validates the "fund" prefix.
func ParseLedgerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLedger) }

// ParseContributionID parses s and validates the "ctb" prefix.
func ParseContributionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixContribution) }

// ParseWithdrawalID parses s and validates the "wdr" prefix.
func ParseWithdrawalID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWithdrawal) }

// ParseEventID parses s and validates the "evt" prefix.
func ParseEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEvent) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
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
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
