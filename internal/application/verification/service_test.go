package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-io/keygate/internal/domain/blacklist"
	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

type fakeLicenseRepo struct {
	mu       sync.Mutex
	licenses map[uint]*license.License
	nextID   uint
}

func newFakeLicenseRepo() *fakeLicenseRepo {
	return &fakeLicenseRepo{licenses: make(map[uint]*license.License)}
}

func (r *fakeLicenseRepo) Create(_ context.Context, l *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if l.ID() == 0 {
		if err := l.SetID(r.nextID); err != nil {
			return err
		}
	}
	r.licenses[l.ID()] = l
	return nil
}

func (r *fakeLicenseRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.licenses, id)
	return nil
}

func (r *fakeLicenseRepo) GetByID(_ context.Context, id uint) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.licenses[id]
	if !ok {
		return nil, license.ErrNotFound
	}
	return cloneLicense(l)
}

func (r *fakeLicenseRepo) GetByDigest(_ context.Context, digest string) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.licenses {
		if l.SecretDigest() == digest {
			return cloneLicense(l)
		}
	}
	return nil, license.ErrNotFound
}

func (r *fakeLicenseRepo) List(_ context.Context, _ license.ListFilter) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*license.License, 0, len(r.licenses))
	for _, l := range r.licenses {
		c, err := cloneLicense(l)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Admit emulates the store's per-license lock with the repo mutex: fn runs
// against the stored aggregate and the result replaces it atomically.
func (r *fakeLicenseRepo) Admit(_ context.Context, id uint, fn func(l *license.License) error) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.licenses[id]
	if !ok {
		return nil, license.ErrNotFound
	}
	fresh, err := cloneLicense(stored)
	if err != nil {
		return nil, err
	}
	if err := fn(fresh); err != nil {
		return nil, err
	}
	r.licenses[id] = fresh
	return cloneLicense(fresh)
}

func (r *fakeLicenseRepo) NextSequence(_ context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.licenses) + 1), nil
}

func cloneLicense(l *license.License) (*license.License, error) {
	exp := l.Expiry()
	pol, err := license.ReconstructExpiryPolicy(
		exp.Enabled(), exp.Type(), exp.Date(), exp.Days(),
		exp.StartOnFirstUse(), exp.MaxUses(), exp.DeleteAfterExpiry(),
	)
	if err != nil {
		return nil, err
	}
	return license.ReconstructLicense(license.ReconstructParams{
		ID:               l.ID(),
		SID:              l.SID(),
		SecretCiphertext: l.SecretCiphertext(),
		SecretDigest:     l.SecretDigest(),
		ProductID:        l.ProductID(),
		ProductName:      l.ProductName(),
		Clientname:       l.Clientname(),
		DiscordID:        l.DiscordID(),
		DiscordUsername:  l.DiscordUsername(),
		Description:      l.Description(),
		Expiry:           pol,
		IPCap:            l.IPCap(),
		IPRetention:      l.IPRetention(),
		HWIDCap:          l.HWIDCap(),
		HWIDRetention:    l.HWIDRetention(),
		GeoLock:          l.GeoLock(),
		IPList:           append([]license.UsageEntry(nil), l.IPList()...),
		HWIDList:         append([]license.UsageEntry(nil), l.HWIDList()...),
		TotalRequests:    l.TotalRequests(),
		LatestIP:         l.LatestIP(),
		LatestHWID:       l.LatestHWID(),
		LatestRequest:    l.LatestRequest(),
		CreatedBy:        l.CreatedBy(),
		CreatedAt:        l.CreatedAt(),
		UpdatedAt:        l.UpdatedAt(),
		Version:          l.Version(),
	})
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*product.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.Name()] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *fakeProductRepo) GetByName(_ context.Context, name string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[name]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]*product.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) RecordSale(_ context.Context, _ uint, _ float64) error {
	return nil
}

type fakeBlacklistRepo struct {
	mu      sync.Mutex
	blocked map[string]bool
	err     error
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{blocked: make(map[string]bool)}
}

func (r *fakeBlacklistRepo) Create(_ context.Context, e *blacklist.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked[e.Value()] = true
	return nil
}

func (r *fakeBlacklistRepo) Delete(_ context.Context, _ uint) error { return nil }

func (r *fakeBlacklistRepo) List(_ context.Context) ([]*blacklist.Entry, error) {
	return nil, nil
}

func (r *fakeBlacklistRepo) IsBlocked(_ context.Context, ip, hwid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.blocked[ip] {
		return true, nil
	}
	return hwid != "" && r.blocked[hwid], nil
}

type fakeSecrets struct{}

func (fakeSecrets) Digest(plaintext string) string { return "digest:" + plaintext }

func (fakeSecrets) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("malformed ciphertext")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(licenseSID, _ string) (string, error) {
	return "token-" + licenseSID, nil
}

type fakeGeo struct {
	country string
	err     error
}

func (g *fakeGeo) Country(_ context.Context, _ string) (string, error) {
	return g.country, g.err
}

type fakeStats struct {
	mu        sync.Mutex
	successes int
	rejected  int
}

func (s *fakeStats) RecordSuccess(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
	return nil
}

func (s *fakeStats) RecordRejection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []*AuditEvent
}

func (p *capturingPublisher) Publish(e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ae, ok := e.(*AuditEvent); ok {
		p.events = append(p.events, ae)
	}
	return nil
}

func (p *capturingPublisher) PublishAll(evs []events.DomainEvent) error {
	for _, e := range evs {
		if err := p.Publish(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *capturingPublisher) last() *AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	svc       *Service
	licenses  *fakeLicenseRepo
	products  *fakeProductRepo
	blacklist *fakeBlacklistRepo
	geo       *fakeGeo
	stats     *fakeStats
	publisher *capturingPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		licenses:  newFakeLicenseRepo(),
		products:  newFakeProductRepo(),
		blacklist: newFakeBlacklistRepo(),
		geo:       &fakeGeo{country: "US"},
		stats:     &fakeStats{},
		publisher: &capturingPublisher{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc = NewService(
		f.licenses, f.products, f.blacklist,
		fakeSecrets{}, fakeTokens{}, f.geo, f.stats, f.publisher, log,
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addProduct(t *testing.T, name, version string) *product.Product {
	t.Helper()
	p, err := product.NewProduct(name, version, 9.99, 0)
	require.NoError(t, err)
	require.NoError(t, p.SetID(uint(len(f.products.products)+1)))
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

type licenseOpts struct {
	key     string
	product string
	expiry  license.ExpiryPolicy
	ipCap   *int
	hwidCap *int
	geoLock *string
}

func (f *fixture) addLicense(t *testing.T, opts licenseOpts) *license.License {
	t.Helper()

	if opts.key == "" {
		opts.key = "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE"
	}
	if opts.product == "" {
		opts.product = "loader"
	}
	l, err := license.NewLicense(license.NewLicenseParams{
		SID:              "00001",
		SecretCiphertext: "enc:" + opts.key,
		SecretDigest:     "digest:" + opts.key,
		ProductID:        1,
		ProductName:      opts.product,
		Clientname:       "testclient",
		Expiry:           opts.expiry,
		IPCap:            opts.ipCap,
		HWIDCap:          opts.hwidCap,
		GeoLock:          opts.geoLock,
		CreatedBy:        "tester",
	}, f.now)
	require.NoError(t, err)
	require.NoError(t, f.licenses.Create(context.Background(), l))
	return l
}

func validRequest() VerifyRequest {
	return VerifyRequest{
		ProductName: "loader",
		LicenseKey:  "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE",
		HWID:        "hwid-1",
		Version:     "1.0.0",
		IP:          "203.0.113.10",
	}
}

func TestVerify_MissingFields(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Verify(context.Background(), VerifyRequest{IP: "203.0.113.10"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailedAuthentication, res.Outcome)
	assert.Equal(t, 400, res.Outcome.Code())
	assert.Equal(t, "failed", res.Outcome.Overview())

	assert.Equal(t, 1, f.stats.rejected)
	ev := f.publisher.last()
	require.NotNil(t, ev)
	assert.Equal(t, SeverityError, ev.Severity)
	assert.Empty(t, ev.LicenseSID)
	assert.Equal(t, "203.0.113.10", ev.IP)
}

func TestVerify_BlacklistedIP(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	f.addLicense(t, licenseOpts{})
	f.blacklist.blocked["203.0.113.10"] = true

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlacklisted, res.Outcome)
	assert.Equal(t, 403, res.Outcome.Code())

	ev := f.publisher.last()
	require.NotNil(t, ev)
	assert.Empty(t, ev.LicenseSID)
}

func TestVerify_BlacklistedHWID(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	f.addLicense(t, licenseOpts{})
	f.blacklist.blocked["hwid-1"] = true

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlacklisted, res.Outcome)
}

func TestVerify_BlacklistMidSession(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	f.addLicense(t, licenseOpts{})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)

	f.blacklist.blocked["203.0.113.10"] = true

	res, err = f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlacklisted, res.Outcome)
}

func TestVerify_InvalidLicenseKey(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")

	req := validRequest()
	req.LicenseKey = "XXXXX-XXXXX-XXXXX-XXXXX-XXXXX"
	res, err := f.svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidLicenseKey, res.Outcome)
	assert.Equal(t, 401, res.Outcome.Code())
}

func TestVerify_StoreFailureIsNotInvalidKey(t *testing.T) {
	f := newFixture(t)
	f.blacklist.err = errors.New("connection refused")

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestVerify_InvalidProduct(t *testing.T) {
	f := newFixture(t)
	f.addLicense(t, licenseOpts{})

	t.Run("unknown product", func(t *testing.T) {
		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalidProduct, res.Outcome)
	})

	t.Run("product not bound to license", func(t *testing.T) {
		f.addProduct(t, "other", "2.0.0")
		req := validRequest()
		req.ProductName = "other"
		res, err := f.svc.Verify(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalidProduct, res.Outcome)
	})
}

func TestVerify_Success(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.4.2")
	f.addLicense(t, licenseOpts{})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	assert.Equal(t, 200, res.Outcome.Code())
	assert.Equal(t, "success", res.Outcome.Overview())
	assert.Equal(t, "token-00001", res.Token)
	assert.Equal(t, "testclient", res.Clientname)
	assert.Equal(t, "1.4.2", res.Version)
	assert.Equal(t, "unknown", res.DiscordUsername)
	assert.Equal(t, "unknown", res.DiscordID)
	assert.Equal(t, "never", res.Expires)

	assert.Equal(t, 1, f.stats.successes)
	assert.Equal(t, 0, f.stats.rejected)

	ev := f.publisher.last()
	require.NotNil(t, ev)
	assert.Equal(t, SeveritySuccess, ev.Severity)
	assert.Equal(t, "00001", ev.LicenseSID)
	assert.Equal(t, uint64(1), ev.TotalRequests)

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.TotalRequests())
	require.NotNil(t, stored.LatestIP())
	assert.Equal(t, "203.0.113.10", *stored.LatestIP())
	assert.Len(t, stored.IPList(), 1)
	assert.Len(t, stored.HWIDList(), 1)
}

func TestVerify_KnownIPIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	one := 1
	f.addLicense(t, licenseOpts{ipCap: &one})

	for i := 0; i < 3; i++ {
		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	}

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, stored.IPList(), 1)
	assert.Equal(t, uint64(3), stored.TotalRequests())
}

func TestVerify_MaximumIPs(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	one := 1
	f.addLicense(t, licenseOpts{ipCap: &one})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)

	req := validRequest()
	req.IP = "203.0.113.99"
	res, err = f.svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaximumIPs, res.Outcome)

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, stored.IPList(), 1)
	assert.Equal(t, uint64(1), stored.TotalRequests())
}

func TestVerify_MaximumHWIDs(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	one := 1
	f.addLicense(t, licenseOpts{hwidCap: &one})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)

	req := validRequest()
	req.HWID = "hwid-2"
	res, err = f.svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaximumHWIDs, res.Outcome)
}

func TestVerify_EmptyHWIDSkipsHWIDQuota(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	one := 1
	f.addLicense(t, licenseOpts{hwidCap: &one})

	req := validRequest()
	req.HWID = ""
	res, err := f.svc.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, stored.HWIDList())
}

func TestVerify_ConcurrentDistinctIPsNeverExceedCap(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	two := 2
	f.addLicense(t, licenseOpts{ipCap: &two})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]Outcome, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := validRequest()
			req.IP = fmt.Sprintf("203.0.113.%d", n+1)
			res, err := f.svc.Verify(context.Background(), req)
			if err != nil {
				errs[n] = err
				return
			}
			results[n] = res.Outcome
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	successes := 0
	for _, o := range results {
		switch o {
		case OutcomeSuccessfulAuthentication:
			successes++
		case OutcomeMaximumIPs:
		default:
			t.Fatalf("unexpected outcome %s", o)
		}
	}
	assert.Equal(t, 2, successes)

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(stored.IPList()), 2)
	assert.Equal(t, uint64(2), stored.TotalRequests())
}

func TestVerify_CountExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	pol, err := license.CountPolicy(5, false)
	require.NoError(t, err)
	f.addLicense(t, licenseOpts{expiry: pol})

	for i := 0; i < 5; i++ {
		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome, "call %d", i+1)
		if i == 4 {
			assert.Equal(t, "5/5", res.Expires)
		}
	}

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredLicenseKey, res.Outcome)
	assert.Equal(t, 410, res.Outcome.Code())

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stored.TotalRequests())
}

func TestVerify_DateExpiry(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	pol, err := license.DatePolicy(f.now.Add(24*time.Hour), false)
	require.NoError(t, err)
	f.addLicense(t, licenseOpts{expiry: pol})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	assert.Equal(t, "in 1 day", res.Expires)

	f.now = f.now.Add(48 * time.Hour)
	res, err = f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredLicenseKey, res.Outcome)
}

func TestVerify_DeleteAfterExpiry(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	pol, err := license.DatePolicy(f.now.Add(-time.Hour), true)
	require.NoError(t, err)
	f.addLicense(t, licenseOpts{expiry: pol})

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredLicenseKey, res.Outcome)

	_, err = f.licenses.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, license.ErrNotFound)

	// one event for the expiry, one for the deletion
	assert.Equal(t, 2, f.publisher.count())
}

func TestVerify_StartOnFirstUse(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	pol, err := license.DaysPolicy(7, true, false, f.now)
	require.NoError(t, err)
	f.addLicense(t, licenseOpts{expiry: pol})

	stored, err := f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, stored.Expiry().Date())

	res, err := f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	assert.Equal(t, "in 7 days", res.Expires)

	stored, err = f.licenses.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored.Expiry().Date())
	assert.Equal(t, f.now.AddDate(0, 0, 7), *stored.Expiry().Date())

	f.now = f.now.AddDate(0, 0, 8)
	res, err = f.svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredLicenseKey, res.Outcome)
}

func TestVerify_GeoLock(t *testing.T) {
	us := "US"

	t.Run("matching country admits", func(t *testing.T) {
		f := newFixture(t)
		f.addProduct(t, "loader", "1.0.0")
		f.addLicense(t, licenseOpts{geoLock: &us})
		f.geo.country = "us"

		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	})

	t.Run("foreign country rejected", func(t *testing.T) {
		f := newFixture(t)
		f.addProduct(t, "loader", "1.0.0")
		f.addLicense(t, licenseOpts{geoLock: &us})
		f.geo.country = "DE"

		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, OutcomeBlockedCountry, res.Outcome)

		ev := f.publisher.last()
		require.NotNil(t, ev)
		assert.Equal(t, "DE", ev.Country)
	})

	t.Run("lookup failure fails closed", func(t *testing.T) {
		f := newFixture(t)
		f.addProduct(t, "loader", "1.0.0")
		f.addLicense(t, licenseOpts{geoLock: &us})
		f.geo.err = errors.New("timeout")

		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, OutcomeBlockedCountry, res.Outcome)
	})

	t.Run("no lock skips resolution", func(t *testing.T) {
		f := newFixture(t)
		f.addProduct(t, "loader", "1.0.0")
		f.addLicense(t, licenseOpts{})
		f.geo.err = errors.New("timeout")

		res, err := f.svc.Verify(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuccessfulAuthentication, res.Outcome)
	})
}

func TestVerify_EveryTerminalBranchEmitsOneEvent(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "loader", "1.0.0")
	f.addLicense(t, licenseOpts{})

	reqs := []VerifyRequest{
		{IP: "203.0.113.10"}, // missing fields
		validRequest(),       // success
	}
	bad := validRequest()
	bad.LicenseKey = "WRONG-WRONG-WRONG-WRONG-WRONG"
	reqs = append(reqs, bad) // invalid key

	for _, req := range reqs {
		_, err := f.svc.Verify(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, len(reqs), f.publisher.count())
}
