package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keygate-io/keygate/internal/domain/blacklist"
	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	"github.com/keygate-io/keygate/internal/shared/biztime"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// Service runs the verification pipeline: guards in order, then a single
// atomic admission against the store, one audit event per terminal branch.
type Service struct {
	licenses  license.Repository
	products  product.Repository
	blacklist blacklist.Repository
	secrets   SecretCodec
	tokens    TokenIssuer
	geo       CountryResolver
	stats     StatsRecorder
	publisher events.EventPublisher
	logger    logger.Interface
	now       func() time.Time
}

// NewService creates a new verification service.
func NewService(
	licenses license.Repository,
	products product.Repository,
	blacklist blacklist.Repository,
	secrets SecretCodec,
	tokens TokenIssuer,
	geo CountryResolver,
	stats StatsRecorder,
	publisher events.EventPublisher,
	logger logger.Interface,
) *Service {
	return &Service{
		licenses:  licenses,
		products:  products,
		blacklist: blacklist,
		secrets:   secrets,
		tokens:    tokens,
		geo:       geo,
		stats:     stats,
		publisher: publisher,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

// Verify decides a single verification request. Policy rejections come back
// as outcomes with a nil error; an error is returned only for collaborator
// failures the caller should surface as an internal error.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	now := s.now()

	if req.ProductName == "" || req.LicenseKey == "" {
		return s.reject(ctx, OutcomeFailedAuthentication, "Failed authentication", SeverityError, req, nil, "", now), nil
	}

	blocked, err := s.blacklist.IsBlocked(ctx, req.IP, req.HWID)
	if err != nil {
		s.logger.Errorw("blacklist lookup failed", "error", err, "ip", req.IP)
		return nil, apperrors.NewInternalError("blacklist lookup failed")
	}
	if blocked {
		return s.reject(ctx, OutcomeBlacklisted, "Blacklisted IP/HWID", SeverityError, req, nil, "", now), nil
	}

	lic, err := s.resolveLicense(ctx, req.LicenseKey)
	if err != nil {
		s.logger.Errorw("license lookup failed", "error", err, "ip", req.IP)
		return nil, apperrors.NewInternalError("license lookup failed")
	}
	if lic == nil {
		return s.reject(ctx, OutcomeInvalidLicenseKey, "Invalid licensekey", SeverityError, req, nil, "", now), nil
	}

	if lic.Expired(now) {
		return s.expired(ctx, req, lic, now), nil
	}

	prod, err := s.products.GetByName(ctx, req.ProductName)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return s.reject(ctx, OutcomeInvalidProduct, "Invalid product", SeverityWarning, req, lic, "", now), nil
		}
		s.logger.Errorw("product lookup failed", "error", err, "product", req.ProductName)
		return nil, apperrors.NewInternalError("product lookup failed")
	}
	if prod.Name() != lic.ProductName() {
		return s.reject(ctx, OutcomeInvalidProduct, "Invalid product", SeverityWarning, req, lic, "", now), nil
	}

	// Fast pre-checks on the loaded snapshot. The authoritative decision is
	// re-made inside the admission transaction while the row lock is held.
	if lic.DecideIP(req.IP, now) == license.AdmissionCapped {
		return s.reject(ctx, OutcomeMaximumIPs, "Maximum IPs", SeverityWarning, req, lic, "", now), nil
	}
	if req.HWID != "" && lic.DecideHWID(req.HWID, now) == license.AdmissionCapped {
		return s.reject(ctx, OutcomeMaximumHWIDs, "Maximum HWIDs", SeverityWarning, req, lic, "", now), nil
	}

	if lock := lic.GeoLock(); lock != nil && *lock != "" {
		country, geoErr := s.geo.Country(ctx, req.IP)
		if geoErr != nil {
			// Fail closed: a geo-locked license rejects callers it cannot place.
			s.logger.Warnw("geo lookup failed, failing closed",
				"error", geoErr,
				"ip", req.IP,
				"license_sid", lic.SID(),
			)
			return s.reject(ctx, OutcomeBlockedCountry, "Blocked country", SeverityWarning, req, lic, "", now), nil
		}
		if !strings.EqualFold(country, *lock) {
			return s.reject(ctx, OutcomeBlockedCountry, "Blocked country", SeverityWarning, req, lic, country, now), nil
		}
	}

	updated, err := s.licenses.Admit(ctx, lic.ID(), func(l *license.License) error {
		return l.Admit(req.IP, req.HWID, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, license.ErrExpired):
			return s.expired(ctx, req, lic, now), nil
		case errors.Is(err, license.ErrIPCapReached):
			return s.reject(ctx, OutcomeMaximumIPs, "Maximum IPs", SeverityWarning, req, lic, "", now), nil
		case errors.Is(err, license.ErrHWIDCapReached):
			return s.reject(ctx, OutcomeMaximumHWIDs, "Maximum HWIDs", SeverityWarning, req, lic, "", now), nil
		case errors.Is(err, license.ErrNotFound):
			return s.reject(ctx, OutcomeInvalidLicenseKey, "Invalid licensekey", SeverityError, req, nil, "", now), nil
		default:
			s.logger.Errorw("license admission failed", "error", err, "license_sid", lic.SID())
			return nil, apperrors.NewInternalError("license admission failed")
		}
	}

	token, err := s.tokens.Issue(updated.SID(), prod.Name())
	if err != nil {
		s.logger.Errorw("token issuance failed", "error", err, "license_sid", updated.SID())
		return nil, apperrors.NewInternalError("token issuance failed")
	}

	if err := s.stats.RecordSuccess(ctx); err != nil {
		s.logger.Warnw("failed to record successful request", "error", err)
	}
	s.publish(NewAuditEvent(OutcomeSuccessfulAuthentication, "Successful authentication", SeveritySuccess, req, updated, "", now))

	s.logger.Infow("successful authentication",
		"license_sid", updated.SID(),
		"clientname", updated.Clientname(),
		"ip", req.IP,
	)

	return &VerifyResult{
		Outcome:         OutcomeSuccessfulAuthentication,
		Token:           token,
		Description:     stringOr(updated.Description(), ""),
		Version:         prod.Version(),
		Clientname:      updated.Clientname(),
		DiscordUsername: stringOr(updated.DiscordUsername(), "unknown"),
		DiscordID:       stringOr(updated.DiscordID(), "unknown"),
		Expires:         expiresDescription(updated, now),
	}, nil
}

// resolveLicense finds the license whose secret matches the candidate key:
// digest lookup first, then decrypt-and-compare to confirm. A nil license
// with nil error means no match.
func (s *Service) resolveLicense(ctx context.Context, key string) (*license.License, error) {
	lic, err := s.licenses.GetByDigest(ctx, s.secrets.Digest(key))
	if err != nil {
		if errors.Is(err, license.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	plaintext, err := s.secrets.Decrypt(lic.SecretCiphertext())
	if err != nil {
		s.logger.Errorw("failed to decrypt license secret", "error", err, "license_sid", lic.SID())
		return nil, nil
	}
	if plaintext != key {
		return nil, nil
	}
	return lic, nil
}

func (s *Service) expired(ctx context.Context, req VerifyRequest, lic *license.License, now time.Time) *VerifyResult {
	s.recordRejection(ctx)
	s.publish(NewAuditEvent(OutcomeExpiredLicenseKey, "Expired licensekey", SeverityWarning, req, lic, "", now))

	if lic.Expiry().DeleteAfterExpiry() {
		if err := s.licenses.Delete(ctx, lic.ID()); err != nil {
			s.logger.Errorw("failed to delete expired license",
				"error", err,
				"license_sid", lic.SID(),
			)
		} else {
			s.publish(NewAuditEvent(OutcomeExpiredLicenseKey, "Deleted expired licensekey", SeverityWarning, req, lic, "", now))
		}
	}

	s.logger.Infow("expired licensekey",
		"license_sid", lic.SID(),
		"clientname", lic.Clientname(),
		"ip", req.IP,
	)
	return failure(OutcomeExpiredLicenseKey)
}

func (s *Service) reject(
	ctx context.Context,
	outcome Outcome,
	message string,
	severity Severity,
	req VerifyRequest,
	lic *license.License,
	country string,
	now time.Time,
) *VerifyResult {
	s.recordRejection(ctx)
	s.publish(NewAuditEvent(outcome, message, severity, req, lic, country, now))
	s.logger.Infow("verification rejected",
		"outcome", outcome,
		"ip", req.IP,
		"product", req.ProductName,
	)
	return failure(outcome)
}

func (s *Service) recordRejection(ctx context.Context) {
	if err := s.stats.RecordRejection(ctx); err != nil {
		s.logger.Warnw("failed to record rejected request", "error", err)
	}
}

func (s *Service) publish(e *AuditEvent) {
	if err := s.publisher.Publish(e); err != nil {
		s.logger.Warnw("failed to publish audit event", "error", err, "outcome", e.Outcome)
	}
}

// expiresDescription renders the human-readable expiry field of the success
// response: "never", a relative time, or used/limit for count policies.
func expiresDescription(lic *license.License, now time.Time) string {
	exp := lic.Expiry()
	if !exp.Enabled() {
		return "never"
	}
	switch exp.Type() {
	case license.ExpiryTypeDays, license.ExpiryTypeDate:
		if exp.Date() == nil {
			return "never"
		}
		return utils.RelativeTime(now, *exp.Date())
	case license.ExpiryTypeCount:
		return fmt.Sprintf("%d/%d", lic.TotalRequests(), exp.MaxUses())
	}
	return "never"
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
