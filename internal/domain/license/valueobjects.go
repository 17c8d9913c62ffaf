package license

import (
	"fmt"
	"time"
)

// ExpiryType identifies which expiry policy is active on a license.
type ExpiryType string

const (
	ExpiryTypeDays  ExpiryType = "days"
	ExpiryTypeDate  ExpiryType = "date"
	ExpiryTypeCount ExpiryType = "count"
)

func (t ExpiryType) IsValid() bool {
	switch t {
	case ExpiryTypeDays, ExpiryTypeDate, ExpiryTypeCount:
		return true
	}
	return false
}

// ExpiryPolicy is the lifecycle policy of a license. At most one of the three
// policy variants is active at a time; a disabled policy never expires.
type ExpiryPolicy struct {
	enabled         bool
	expiryType      ExpiryType
	date            *time.Time
	days            int
	startOnFirstUse bool
	maxUses         uint64
	deleteAfter     bool
}

// NonExpiringPolicy returns a policy that never expires.
func NonExpiringPolicy() ExpiryPolicy {
	return ExpiryPolicy{}
}

// DaysPolicy expires the license a fixed number of days after a reference
// point: creation time, or the first successful verification when
// startOnFirstUse is set (the date stays unset until then).
func DaysPolicy(days int, startOnFirstUse bool, deleteAfter bool, now time.Time) (ExpiryPolicy, error) {
	if days < 1 {
		return ExpiryPolicy{}, fmt.Errorf("expiry days must be at least 1, got %d", days)
	}
	p := ExpiryPolicy{
		enabled:         true,
		expiryType:      ExpiryTypeDays,
		days:            days,
		startOnFirstUse: startOnFirstUse,
		deleteAfter:     deleteAfter,
	}
	if !startOnFirstUse {
		date := now.AddDate(0, 0, days)
		p.date = &date
	}
	return p, nil
}

// DatePolicy expires the license at a fixed date.
func DatePolicy(date time.Time, deleteAfter bool) (ExpiryPolicy, error) {
	if date.IsZero() {
		return ExpiryPolicy{}, fmt.Errorf("expiry date is required")
	}
	return ExpiryPolicy{
		enabled:     true,
		expiryType:  ExpiryTypeDate,
		date:        &date,
		deleteAfter: deleteAfter,
	}, nil
}

// CountPolicy expires the license after a fixed number of successful
// verifications.
func CountPolicy(maxUses uint64, deleteAfter bool) (ExpiryPolicy, error) {
	if maxUses < 1 {
		return ExpiryPolicy{}, fmt.Errorf("expiry count must be at least 1, got %d", maxUses)
	}
	return ExpiryPolicy{
		enabled:     true,
		expiryType:  ExpiryTypeCount,
		maxUses:     maxUses,
		deleteAfter: deleteAfter,
	}, nil
}

// ReconstructExpiryPolicy rebuilds a policy from persistence.
func ReconstructExpiryPolicy(
	enabled bool,
	expiryType ExpiryType,
	date *time.Time,
	days int,
	startOnFirstUse bool,
	maxUses uint64,
	deleteAfter bool,
) (ExpiryPolicy, error) {
	if !enabled {
		return ExpiryPolicy{}, nil
	}
	if !expiryType.IsValid() {
		return ExpiryPolicy{}, fmt.Errorf("invalid expiry type: %s", expiryType)
	}
	return ExpiryPolicy{
		enabled:         true,
		expiryType:      expiryType,
		date:            date,
		days:            days,
		startOnFirstUse: startOnFirstUse,
		maxUses:         maxUses,
		deleteAfter:     deleteAfter,
	}, nil
}

func (p ExpiryPolicy) Enabled() bool          { return p.enabled }
func (p ExpiryPolicy) Type() ExpiryType       { return p.expiryType }
func (p ExpiryPolicy) Date() *time.Time       { return p.date }
func (p ExpiryPolicy) Days() int              { return p.days }
func (p ExpiryPolicy) StartOnFirstUse() bool  { return p.startOnFirstUse }
func (p ExpiryPolicy) MaxUses() uint64        { return p.maxUses }
func (p ExpiryPolicy) DeleteAfterExpiry() bool { return p.deleteAfter }

// Expired reports whether the license is expired at the given instant.
// The count policy compares against usage before any increment, so the
// request that would exceed the limit is itself rejected.
func (p ExpiryPolicy) Expired(now time.Time, totalRequests uint64) bool {
	if !p.enabled {
		return false
	}
	switch p.expiryType {
	case ExpiryTypeDays, ExpiryTypeDate:
		// Days policy with startOnFirstUse has no date until first use.
		return p.date != nil && now.After(*p.date)
	case ExpiryTypeCount:
		return totalRequests >= p.maxUses
	}
	return false
}

// UsageKind distinguishes the two usage-binding dimensions of a license.
type UsageKind string

const (
	UsageKindIP   UsageKind = "ip"
	UsageKindHWID UsageKind = "hwid"
)

func (k UsageKind) IsValid() bool {
	return k == UsageKindIP || k == UsageKindHWID
}

// UsageEntry is one admitted IP or HWID with its retention deadline.
// A nil deadline means the entry never expires.
type UsageEntry struct {
	value     string
	firstSeen time.Time
	deadline  *time.Time
}

// NewUsageEntry creates a usage entry first seen now. retention of zero means
// the entry never expires.
func NewUsageEntry(value string, now time.Time, retention time.Duration) UsageEntry {
	e := UsageEntry{value: value, firstSeen: now}
	if retention > 0 {
		deadline := now.Add(retention)
		e.deadline = &deadline
	}
	return e
}

// ReconstructUsageEntry rebuilds a usage entry from persistence.
func ReconstructUsageEntry(value string, firstSeen time.Time, deadline *time.Time) UsageEntry {
	return UsageEntry{value: value, firstSeen: firstSeen, deadline: deadline}
}

func (e UsageEntry) Value() string        { return e.value }
func (e UsageEntry) FirstSeen() time.Time { return e.firstSeen }
func (e UsageEntry) Deadline() *time.Time { return e.deadline }

// Stale reports whether the entry's retention deadline has passed.
func (e UsageEntry) Stale(now time.Time) bool {
	return e.deadline != nil && now.After(*e.deadline)
}

// Admission is the outcome of a quota decision for a candidate value.
type Admission int

const (
	// AdmissionNew admits a value not yet in the usage set.
	AdmissionNew Admission = iota
	// AdmissionKnown admits a value already present; the set does not grow.
	AdmissionKnown
	// AdmissionCapped rejects a new value because the set is at capacity.
	AdmissionCapped
)
