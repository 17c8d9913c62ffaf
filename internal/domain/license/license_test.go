package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func intPtr(v int) *int { return &v }

func durPtr(d time.Duration) *time.Duration { return &d }

func newTestLicense(t *testing.T, mutate func(*NewLicenseParams)) *License {
	t.Helper()
	params := NewLicenseParams{
		SID:              "00001",
		SecretCiphertext: "ciphertext",
		SecretDigest:     "digest",
		ProductID:        1,
		ProductName:      "loader",
		Clientname:       "client one",
		Expiry:           NonExpiringPolicy(),
		CreatedBy:        "test",
	}
	if mutate != nil {
		mutate(&params)
	}
	l, err := NewLicense(params, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return l
}

// =====================================================================
// TestNewLicense_*
// =====================================================================

func TestNewLicense_ValidInput(t *testing.T) {
	l := newTestLicense(t, nil)

	assert.Equal(t, "00001", l.SID())
	assert.Equal(t, uint(1), l.ProductID())
	assert.Equal(t, uint64(0), l.TotalRequests())
	assert.Empty(t, l.IPList())
	assert.Empty(t, l.HWIDList())
	assert.Nil(t, l.LatestIP())
	assert.Equal(t, 1, l.Version())
}

func TestNewLicense_ClientnameTooShort(t *testing.T) {
	params := NewLicenseParams{
		SID:              "00001",
		SecretCiphertext: "c",
		SecretDigest:     "d",
		ProductID:        1,
		ProductName:      "loader",
		Clientname:       "ab",
	}
	l, err := NewLicense(params, time.Now().UTC())
	assert.Error(t, err)
	assert.Nil(t, l)
	assert.Contains(t, err.Error(), "clientname")
}

func TestNewLicense_InvalidCaps(t *testing.T) {
	params := NewLicenseParams{
		SID:              "00001",
		SecretCiphertext: "c",
		SecretDigest:     "d",
		ProductID:        1,
		ProductName:      "loader",
		Clientname:       "client",
		IPCap:            intPtr(0),
	}
	_, err := NewLicense(params, time.Now().UTC())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "IP cap")
}

func TestNewLicense_PreloadedIPs(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) {
		p.PreloadedIPs = []string{"1.1.1.1", "2.2.2.2"}
	})
	require.Len(t, l.IPList(), 2)
	assert.Equal(t, "1.1.1.1", l.IPList()[0].Value())
}

// =====================================================================
// Expiry policies
// =====================================================================

func TestExpiryPolicy_NonExpiring(t *testing.T) {
	p := NonExpiringPolicy()
	assert.False(t, p.Enabled())
	assert.False(t, p.Expired(time.Now().UTC().AddDate(100, 0, 0), 1<<40))
}

func TestExpiryPolicy_Date(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p, err := DatePolicy(date, false)
	require.NoError(t, err)

	assert.False(t, p.Expired(date.Add(-time.Second), 0))
	assert.False(t, p.Expired(date, 0))
	assert.True(t, p.Expired(date.Add(time.Second), 0))
}

func TestExpiryPolicy_Days_FromCreation(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := DaysPolicy(30, false, false, now)
	require.NoError(t, err)

	require.NotNil(t, p.Date())
	assert.Equal(t, now.AddDate(0, 0, 30), *p.Date())
	assert.False(t, p.Expired(now.AddDate(0, 0, 29), 0))
	assert.True(t, p.Expired(now.AddDate(0, 0, 31), 0))
}

func TestExpiryPolicy_Days_StartOnFirstUse_DateUnsetUntilFirstSuccess(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := DaysPolicy(7, true, false, now)
	require.NoError(t, err)

	assert.Nil(t, p.Date())
	// No date yet, so never expired regardless of elapsed time.
	assert.False(t, p.Expired(now.AddDate(10, 0, 0), 0))
}

func TestExpiryPolicy_Count_BoundaryIsPreIncrement(t *testing.T) {
	p, err := CountPolicy(5, false)
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.False(t, p.Expired(now, 4), "5th request must still be admitted")
	assert.True(t, p.Expired(now, 5), "6th request must be rejected")
}

// =====================================================================
// Admit: commit-stage semantics
// =====================================================================

func TestAdmit_FirstRequest(t *testing.T) {
	l := newTestLicense(t, nil)
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("1.2.3.4", "HW-1", now))

	assert.Equal(t, uint64(1), l.TotalRequests())
	require.NotNil(t, l.LatestIP())
	assert.Equal(t, "1.2.3.4", *l.LatestIP())
	require.NotNil(t, l.LatestHWID())
	assert.Equal(t, "HW-1", *l.LatestHWID())
	require.NotNil(t, l.LatestRequest())
	assert.Equal(t, now, *l.LatestRequest())
	assert.Len(t, l.IPList(), 1)
	assert.Len(t, l.HWIDList(), 1)
}

func TestAdmit_KnownIPIsIdempotentForSet(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.IPCap = intPtr(1) })
	now := time.Now().UTC()

	require.NoError(t, l.Admit("1.2.3.4", "", now))
	require.NoError(t, l.Admit("1.2.3.4", "", now.Add(time.Minute)))

	assert.Len(t, l.IPList(), 1, "known IP must not grow the set")
	assert.Equal(t, uint64(2), l.TotalRequests(), "counter still increments per success")
}

func TestAdmit_IPCapRejectsNewIP(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.IPCap = intPtr(2) })
	now := time.Now().UTC()

	require.NoError(t, l.Admit("1.1.1.1", "", now))
	require.NoError(t, l.Admit("2.2.2.2", "", now))

	err := l.Admit("3.3.3.3", "", now)
	assert.ErrorIs(t, err, ErrIPCapReached)
	assert.Len(t, l.IPList(), 2, "cap invariant holds")
	assert.Equal(t, uint64(2), l.TotalRequests(), "rejected request must not count")
}

func TestAdmit_HWIDCapRejectsNewHWID(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.HWIDCap = intPtr(1) })
	now := time.Now().UTC()

	require.NoError(t, l.Admit("1.1.1.1", "HW-1", now))

	err := l.Admit("1.1.1.1", "HW-2", now)
	assert.ErrorIs(t, err, ErrHWIDCapReached)
	assert.Len(t, l.HWIDList(), 1)
}

func TestAdmit_EmptyHWIDSkipsHWIDSet(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.HWIDCap = intPtr(1) })
	now := time.Now().UTC()

	require.NoError(t, l.Admit("1.1.1.1", "", now))
	assert.Empty(t, l.HWIDList())
	assert.Nil(t, l.LatestHWID())
}

func TestAdmit_StaleEntriesPrunedBeforeCapCheck(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) {
		p.IPCap = intPtr(1)
		p.IPRetention = durPtr(time.Hour)
	})
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("1.1.1.1", "", start))

	// Within the retention window a new IP is capped out.
	err := l.Admit("2.2.2.2", "", start.Add(30*time.Minute))
	assert.ErrorIs(t, err, ErrIPCapReached)

	// After the first entry's deadline passes, the slot frees up.
	require.NoError(t, l.Admit("2.2.2.2", "", start.Add(2*time.Hour)))
	require.Len(t, l.IPList(), 1)
	assert.Equal(t, "2.2.2.2", l.IPList()[0].Value())
}

func TestAdmit_KnownIPRefreshesDeadline(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) {
		p.IPRetention = durPtr(time.Hour)
	})
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("1.1.1.1", "", start))
	require.NoError(t, l.Admit("1.1.1.1", "", start.Add(50*time.Minute)))

	require.Len(t, l.IPList(), 1)
	entry := l.IPList()[0]
	require.NotNil(t, entry.Deadline())
	assert.Equal(t, start.Add(50*time.Minute).Add(time.Hour), *entry.Deadline())
	assert.Equal(t, start, entry.FirstSeen(), "first_seen is preserved on refresh")
}

func TestAdmit_NilRetentionNeverExpires(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.IPCap = intPtr(1) })
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("1.1.1.1", "", start))

	err := l.Admit("2.2.2.2", "", start.AddDate(10, 0, 0))
	assert.ErrorIs(t, err, ErrIPCapReached, "entries without retention never free up")
}

func TestAdmit_CountExpiry(t *testing.T) {
	policy, err := CountPolicy(5, false)
	require.NoError(t, err)
	l := newTestLicense(t, func(p *NewLicenseParams) { p.Expiry = policy })
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Admit("1.1.1.1", "", now))
	}
	assert.Equal(t, uint64(5), l.TotalRequests())

	err = l.Admit("1.1.1.1", "", now)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, uint64(5), l.TotalRequests(), "expired request must not increment")
}

func TestAdmit_StartOnFirstUseSetsDate(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	policy, err := DaysPolicy(7, true, false, now)
	require.NoError(t, err)
	l := newTestLicense(t, func(p *NewLicenseParams) { p.Expiry = policy })

	require.Nil(t, l.Expiry().Date())

	require.NoError(t, l.Admit("1.1.1.1", "", now))
	require.NotNil(t, l.Expiry().Date())
	assert.Equal(t, now.AddDate(0, 0, 7), *l.Expiry().Date())

	// Second admit must not move the clock.
	require.NoError(t, l.Admit("1.1.1.1", "", now.AddDate(0, 0, 1)))
	assert.Equal(t, now.AddDate(0, 0, 7), *l.Expiry().Date())

	// And past the date the license is expired.
	err = l.Admit("1.1.1.1", "", now.AddDate(0, 0, 8))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestAdmit_DateExpiry(t *testing.T) {
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	policy, err := DatePolicy(date, true)
	require.NoError(t, err)
	l := newTestLicense(t, func(p *NewLicenseParams) { p.Expiry = policy })

	require.NoError(t, l.Admit("1.1.1.1", "", date.Add(-time.Hour)))

	err = l.Admit("1.1.1.1", "", date.Add(time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
	assert.True(t, l.Expiry().DeleteAfterExpiry())
}

// =====================================================================
// Decide: read-only quota evaluation
// =====================================================================

func TestDecideIP(t *testing.T) {
	l := newTestLicense(t, func(p *NewLicenseParams) { p.IPCap = intPtr(1) })
	now := time.Now().UTC()

	assert.Equal(t, AdmissionNew, l.DecideIP("1.1.1.1", now))
	require.NoError(t, l.Admit("1.1.1.1", "", now))

	assert.Equal(t, AdmissionKnown, l.DecideIP("1.1.1.1", now))
	assert.Equal(t, AdmissionCapped, l.DecideIP("2.2.2.2", now))

	// Decide must not mutate state.
	assert.Len(t, l.IPList(), 1)
	assert.Equal(t, uint64(1), l.TotalRequests())
}

func TestDecideHWID_NoCap(t *testing.T) {
	l := newTestLicense(t, nil)
	now := time.Now().UTC()

	for i, hw := range []string{"HW-1", "HW-2", "HW-3"} {
		assert.Equal(t, AdmissionNew, l.DecideHWID(hw, now), "uncapped set admits any new value (%d)", i)
		require.NoError(t, l.Admit("1.1.1.1", hw, now))
	}
	assert.Len(t, l.HWIDList(), 3)
}
