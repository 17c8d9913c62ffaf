package license

import (
	"fmt"
	"time"
)

// License is the aggregate root for a single license key entitlement.
// It owns the expiry policy, the two bounded usage sets and the request
// counters; verification admits usage exclusively through Admit so the
// decide and commit steps cannot diverge.
type License struct {
	id               uint
	sid              string // human-readable sequential id, zero-padded
	secretCiphertext string
	secretDigest     string // keyed digest of the plaintext secret, indexed for lookup
	productID        uint
	productName      string
	clientname       string
	discordID        *string
	discordUsername  *string
	description      *string
	expiry           ExpiryPolicy
	ipCap            *int
	ipRetention      *time.Duration // nil means admitted IPs never expire
	hwidCap          *int
	hwidRetention    *time.Duration
	geoLock          *string // ISO country code the license is locked to
	ipList           []UsageEntry
	hwidList         []UsageEntry
	totalRequests    uint64
	latestIP         *string
	latestHWID       *string
	latestRequest    *time.Time
	createdBy        string
	createdAt        time.Time
	updatedAt        time.Time
	version          int
}

// NewLicenseParams carries the inputs for creating a license.
type NewLicenseParams struct {
	SID              string
	SecretCiphertext string
	SecretDigest     string
	ProductID        uint
	ProductName      string
	Clientname       string
	DiscordID        *string
	DiscordUsername  *string
	Description      *string
	Expiry           ExpiryPolicy
	IPCap            *int
	IPRetention      *time.Duration
	HWIDCap          *int
	HWIDRetention    *time.Duration
	GeoLock          *string
	PreloadedIPs     []string
	CreatedBy        string
}

// NewLicense creates a new license aggregate.
func NewLicense(p NewLicenseParams, now time.Time) (*License, error) {
	if p.SID == "" {
		return nil, fmt.Errorf("license SID is required")
	}
	if p.SecretCiphertext == "" || p.SecretDigest == "" {
		return nil, fmt.Errorf("license secret material is required")
	}
	if p.ProductID == 0 {
		return nil, fmt.Errorf("product ID is required")
	}
	if p.ProductName == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if len(p.Clientname) < 3 || len(p.Clientname) > 100 {
		return nil, fmt.Errorf("clientname must be 3-100 characters, got %d", len(p.Clientname))
	}
	if p.Description != nil && len(*p.Description) > 400 {
		return nil, fmt.Errorf("description must be at most 400 characters")
	}
	if p.IPCap != nil && *p.IPCap < 1 {
		return nil, fmt.Errorf("IP cap must be at least 1")
	}
	if p.HWIDCap != nil && *p.HWIDCap < 1 {
		return nil, fmt.Errorf("HWID cap must be at least 1")
	}

	l := &License{
		sid:              p.SID,
		secretCiphertext: p.SecretCiphertext,
		secretDigest:     p.SecretDigest,
		productID:        p.ProductID,
		productName:      p.ProductName,
		clientname:       p.Clientname,
		discordID:        p.DiscordID,
		discordUsername:  p.DiscordUsername,
		description:      p.Description,
		expiry:           p.Expiry,
		ipCap:            p.IPCap,
		ipRetention:      p.IPRetention,
		hwidCap:          p.HWIDCap,
		hwidRetention:    p.HWIDRetention,
		geoLock:          p.GeoLock,
		createdBy:        p.CreatedBy,
		createdAt:        now,
		updatedAt:        now,
		version:          1,
	}

	for _, ip := range p.PreloadedIPs {
		l.ipList = append(l.ipList, NewUsageEntry(ip, now, retentionOf(p.IPRetention)))
	}

	return l, nil
}

// ReconstructParams carries the persisted state of a license.
type ReconstructParams struct {
	ID               uint
	SID              string
	SecretCiphertext string
	SecretDigest     string
	ProductID        uint
	ProductName      string
	Clientname       string
	DiscordID        *string
	DiscordUsername  *string
	Description      *string
	Expiry           ExpiryPolicy
	IPCap            *int
	IPRetention      *time.Duration
	HWIDCap          *int
	HWIDRetention    *time.Duration
	GeoLock          *string
	IPList           []UsageEntry
	HWIDList         []UsageEntry
	TotalRequests    uint64
	LatestIP         *string
	LatestHWID       *string
	LatestRequest    *time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// ReconstructLicense rebuilds a license from persistence.
func ReconstructLicense(p ReconstructParams) (*License, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("license ID cannot be zero")
	}
	if p.SID == "" {
		return nil, fmt.Errorf("license SID is required")
	}
	return &License{
		id:               p.ID,
		sid:              p.SID,
		secretCiphertext: p.SecretCiphertext,
		secretDigest:     p.SecretDigest,
		productID:        p.ProductID,
		productName:      p.ProductName,
		clientname:       p.Clientname,
		discordID:        p.DiscordID,
		discordUsername:  p.DiscordUsername,
		description:      p.Description,
		expiry:           p.Expiry,
		ipCap:            p.IPCap,
		ipRetention:      p.IPRetention,
		hwidCap:          p.HWIDCap,
		hwidRetention:    p.HWIDRetention,
		geoLock:          p.GeoLock,
		ipList:           p.IPList,
		hwidList:         p.HWIDList,
		totalRequests:    p.TotalRequests,
		latestIP:         p.LatestIP,
		latestHWID:       p.LatestHWID,
		latestRequest:    p.LatestRequest,
		createdBy:        p.CreatedBy,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
		version:          p.Version,
	}, nil
}

func (l *License) ID() uint                      { return l.id }
func (l *License) SID() string                   { return l.sid }
func (l *License) SecretCiphertext() string      { return l.secretCiphertext }
func (l *License) SecretDigest() string          { return l.secretDigest }
func (l *License) ProductID() uint               { return l.productID }
func (l *License) ProductName() string           { return l.productName }
func (l *License) Clientname() string            { return l.clientname }
func (l *License) DiscordID() *string            { return l.discordID }
func (l *License) DiscordUsername() *string      { return l.discordUsername }
func (l *License) Description() *string          { return l.description }
func (l *License) Expiry() ExpiryPolicy          { return l.expiry }
func (l *License) IPCap() *int                   { return l.ipCap }
func (l *License) IPRetention() *time.Duration   { return l.ipRetention }
func (l *License) HWIDCap() *int                 { return l.hwidCap }
func (l *License) HWIDRetention() *time.Duration { return l.hwidRetention }
func (l *License) GeoLock() *string              { return l.geoLock }
func (l *License) IPList() []UsageEntry          { return l.ipList }
func (l *License) HWIDList() []UsageEntry        { return l.hwidList }
func (l *License) TotalRequests() uint64         { return l.totalRequests }
func (l *License) LatestIP() *string             { return l.latestIP }
func (l *License) LatestHWID() *string           { return l.latestHWID }
func (l *License) LatestRequest() *time.Time     { return l.latestRequest }
func (l *License) CreatedBy() string             { return l.createdBy }
func (l *License) CreatedAt() time.Time          { return l.createdAt }
func (l *License) UpdatedAt() time.Time          { return l.updatedAt }
func (l *License) Version() int                  { return l.version }

// SetID sets the license ID (only for persistence layer use)
func (l *License) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("license ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("license ID cannot be zero")
	}
	l.id = id
	return nil
}

// Expired reports whether the license is expired at the given instant.
func (l *License) Expired(now time.Time) bool {
	return l.expiry.Expired(now, l.totalRequests)
}

// PruneUsage drops usage entries whose retention deadline has passed.
// Pruning always runs before any cap comparison.
func (l *License) PruneUsage(now time.Time) {
	l.ipList = pruneEntries(l.ipList, now)
	l.hwidList = pruneEntries(l.hwidList, now)
}

// DecideIP evaluates IP admission against the cap without mutating the set.
func (l *License) DecideIP(ip string, now time.Time) Admission {
	return decide(pruneEntries(l.ipList, now), ip, l.ipCap)
}

// DecideHWID evaluates HWID admission against the cap without mutating the set.
func (l *License) DecideHWID(hwid string, now time.Time) Admission {
	return decide(pruneEntries(l.hwidList, now), hwid, l.hwidCap)
}

// Admit performs the full admission commit for a verification request:
// it re-evaluates expiry and both quotas against current state, then applies
// every success-path mutation. Callers must invoke it while holding the
// store's per-license lock so no other verification interleaves.
//
// hwid may be empty; the HWID set is untouched then.
func (l *License) Admit(ip, hwid string, now time.Time) error {
	if l.Expired(now) {
		return ErrExpired
	}

	l.PruneUsage(now)

	if decide(l.ipList, ip, l.ipCap) == AdmissionCapped {
		return ErrIPCapReached
	}
	if hwid != "" && decide(l.hwidList, hwid, l.hwidCap) == AdmissionCapped {
		return ErrHWIDCapReached
	}

	l.ipList = touch(l.ipList, ip, now, retentionOf(l.ipRetention))
	if hwid != "" {
		l.hwidList = touch(l.hwidList, hwid, now, retentionOf(l.hwidRetention))
	}

	l.totalRequests++
	l.latestIP = &ip
	l.latestRequest = &now
	if hwid != "" {
		l.latestHWID = &hwid
	}

	// A days policy that starts on first use gets its date set by the first
	// successful verification, not at creation.
	if l.expiry.enabled && l.expiry.expiryType == ExpiryTypeDays &&
		l.expiry.startOnFirstUse && l.expiry.date == nil {
		date := now.AddDate(0, 0, l.expiry.days)
		l.expiry.date = &date
	}

	l.updatedAt = now
	l.version++
	return nil
}

func pruneEntries(entries []UsageEntry, now time.Time) []UsageEntry {
	kept := entries[:0:len(entries)]
	for _, e := range entries {
		if !e.Stale(now) {
			kept = append(kept, e)
		}
	}
	return kept
}

// decide implements the quota algorithm: a known value is always admitted
// without growing the set; a new value is admitted only below the cap.
func decide(entries []UsageEntry, candidate string, limit *int) Admission {
	for _, e := range entries {
		if e.Value() == candidate {
			return AdmissionKnown
		}
	}
	if limit != nil && len(entries) >= *limit {
		return AdmissionCapped
	}
	return AdmissionNew
}

// touch refreshes the deadline of an existing entry or appends a new one.
func touch(entries []UsageEntry, value string, now time.Time, retention time.Duration) []UsageEntry {
	for i, e := range entries {
		if e.Value() == value {
			entries[i] = ReconstructUsageEntry(value, e.FirstSeen(), deadlineFrom(now, retention))
			return entries
		}
	}
	return append(entries, NewUsageEntry(value, now, retention))
}

func deadlineFrom(now time.Time, retention time.Duration) *time.Time {
	if retention <= 0 {
		return nil
	}
	d := now.Add(retention)
	return &d
}

func retentionOf(r *time.Duration) time.Duration {
	if r == nil {
		return 0
	}
	return *r
}
