package blacklist

import (
	"fmt"
	"time"
)

// Kind distinguishes what a blacklist entry matches against.
type Kind string

const (
	KindIP   Kind = "ip"
	KindHWID Kind = "hwid"
)

func (k Kind) IsValid() bool {
	return k == KindIP || k == KindHWID
}

// Entry is a blocked IP or HWID. Entries are immutable once created,
// except for deletion.
type Entry struct {
	id        uint
	value     string
	kind      Kind
	createdBy string
	createdAt time.Time
}

// NewEntry creates a new blacklist entry.
func NewEntry(value string, kind Kind, createdBy string) (*Entry, error) {
	if value == "" {
		return nil, fmt.Errorf("blacklist value is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid blacklist kind: %s", kind)
	}
	return &Entry{
		value:     value,
		kind:      kind,
		createdBy: createdBy,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructEntry rebuilds an entry from persistence.
func ReconstructEntry(id uint, value string, kind Kind, createdBy string, createdAt time.Time) (*Entry, error) {
	if id == 0 {
		return nil, fmt.Errorf("blacklist entry ID cannot be zero")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid blacklist kind: %s", kind)
	}
	return &Entry{
		id:        id,
		value:     value,
		kind:      kind,
		createdBy: createdBy,
		createdAt: createdAt,
	}, nil
}

func (e *Entry) ID() uint             { return e.id }
func (e *Entry) Value() string        { return e.value }
func (e *Entry) Kind() Kind           { return e.kind }
func (e *Entry) CreatedBy() string    { return e.createdBy }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// SetID sets the entry ID (only for persistence layer use)
func (e *Entry) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("blacklist entry ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("blacklist entry ID cannot be zero")
	}
	e.id = id
	return nil
}
