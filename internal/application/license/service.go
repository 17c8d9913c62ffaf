package license

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/shared/biztime"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/id"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// SecretCipher is the key-management collaborator of the dev API: licenses
// are stored encrypted with an indexed keyed digest, and listings decrypt
// for the operator.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	Digest(plaintext string) string
}

var discordIDPattern = regexp.MustCompile(`^\d{17,22}$`)

// Service implements the dev API license operations.
type Service struct {
	licenses license.Repository
	products product.Repository
	secrets  SecretCipher
	logger   logger.Interface
	now      func() time.Time
}

// NewService creates a new dev API license service.
func NewService(
	licenses license.Repository,
	products product.Repository,
	secrets SecretCipher,
	logger logger.Interface,
) *Service {
	return &Service{
		licenses: licenses,
		products: products,
		secrets:  secrets,
		logger:   logger,
		now:      biztime.NowUTC,
	}
}

// Create mints a new license: validates the payload, generates the key,
// encrypts it for storage and returns the plaintext exactly once.
func (s *Service) Create(ctx context.Context, in CreateLicenseInput) (*LicenseDTO, error) {
	if in.Product == "" || in.Clientname == "" {
		return nil, apperrors.NewValidationError("product and clientname are required")
	}

	prod, err := s.products.GetByName(ctx, in.Product)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperrors.NewValidationError("invalid product")
		}
		s.logger.Errorw("product lookup failed", "error", err, "product", in.Product)
		return nil, apperrors.NewInternalError("product lookup failed")
	}

	if in.DiscordID != nil && *in.DiscordID != "" {
		if !discordIDPattern.MatchString(*in.DiscordID) {
			return nil, apperrors.NewValidationError("discord ID is not valid")
		}
	} else {
		in.DiscordID = nil
	}

	policy, err := s.buildExpiryPolicy(in)
	if err != nil {
		return nil, err
	}

	key, err := id.GenerateLicenseKey(5, 5)
	if err != nil {
		s.logger.Errorw("license key generation failed", "error", err)
		return nil, apperrors.NewInternalError("license key generation failed")
	}
	ciphertext, err := s.secrets.Encrypt(key)
	if err != nil {
		s.logger.Errorw("license key encryption failed", "error", err)
		return nil, apperrors.NewInternalError("license key encryption failed")
	}

	seq, err := s.licenses.NextSequence(ctx)
	if err != nil {
		s.logger.Errorw("license sequence allocation failed", "error", err)
		return nil, apperrors.NewInternalError("license sequence allocation failed")
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "DevAPI"
	}

	lic, err := license.NewLicense(license.NewLicenseParams{
		SID:              fmt.Sprintf("%05d", seq),
		SecretCiphertext: ciphertext,
		SecretDigest:     s.secrets.Digest(key),
		ProductID:        prod.ID(),
		ProductName:      prod.Name(),
		Clientname:       in.Clientname,
		DiscordID:        in.DiscordID,
		Description:      in.Description,
		Expiry:           policy,
		IPCap:            in.IPCap,
		IPRetention:      retentionFromSeconds(in.IPCap, in.IPExpires),
		HWIDCap:          in.HWIDCap,
		HWIDRetention:    retentionFromSeconds(in.HWIDCap, in.HWIDExpires),
		GeoLock:          in.GeoLock,
		PreloadedIPs:     in.PreloadedIPs,
		CreatedBy:        createdBy,
	}, s.now())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.licenses.Create(ctx, lic); err != nil {
		s.logger.Errorw("license creation failed", "error", err, "clientname", in.Clientname)
		return nil, apperrors.NewInternalError("license creation failed")
	}

	if err := s.products.RecordSale(ctx, prod.ID(), prod.GrossPrice()); err != nil {
		s.logger.Warnw("failed to record product sale",
			"error", err,
			"product", prod.Name(),
		)
	}

	s.logger.Infow("license created",
		"license_sid", lic.SID(),
		"clientname", lic.Clientname(),
		"product", prod.Name(),
		"created_by", createdBy,
	)

	dto := toDTO(lic, key)
	return &dto, nil
}

// List returns licenses matching the filter, with keys decrypted.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]LicenseDTO, error) {
	matches, err := s.licenses.List(ctx, license.ListFilter{
		Clientname:  filter.Clientname,
		ProductName: filter.ProductName,
	})
	if err != nil {
		s.logger.Errorw("license listing failed", "error", err)
		return nil, apperrors.NewInternalError("license listing failed")
	}

	out := make([]LicenseDTO, 0, len(matches))
	for _, lic := range matches {
		key, err := s.secrets.Decrypt(lic.SecretCiphertext())
		if err != nil {
			s.logger.Errorw("failed to decrypt license secret",
				"error", err,
				"license_sid", lic.SID(),
			)
			return nil, apperrors.NewInternalError("failed to decrypt license secret")
		}
		if filter.LicenseKey != "" && key != filter.LicenseKey {
			continue
		}
		out = append(out, toDTO(lic, key))
	}
	return out, nil
}

// Delete removes a license addressed by its plaintext key.
func (s *Service) Delete(ctx context.Context, key string) (*LicenseDTO, error) {
	if key == "" {
		return nil, apperrors.NewValidationError("no license provided")
	}

	lic, err := s.licenses.GetByDigest(ctx, s.secrets.Digest(key))
	if err != nil {
		if errors.Is(err, license.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("license not found")
		}
		s.logger.Errorw("license lookup failed", "error", err)
		return nil, apperrors.NewInternalError("license lookup failed")
	}

	plaintext, err := s.secrets.Decrypt(lic.SecretCiphertext())
	if err != nil || plaintext != key {
		return nil, apperrors.NewNotFoundError("license not found")
	}

	if err := s.licenses.Delete(ctx, lic.ID()); err != nil {
		s.logger.Errorw("license deletion failed", "error", err, "license_sid", lic.SID())
		return nil, apperrors.NewInternalError("license deletion failed")
	}

	s.logger.Infow("license deleted", "license_sid", lic.SID(), "clientname", lic.Clientname())
	dto := toDTO(lic, key)
	return &dto, nil
}

// buildExpiryPolicy normalizes the three mutually exclusive expiry variants:
// exactly the fields of the active variant survive, the rest are dropped.
func (s *Service) buildExpiryPolicy(in CreateLicenseInput) (license.ExpiryPolicy, error) {
	if !in.Expires {
		return license.NonExpiringPolicy(), nil
	}

	switch in.ExpiresType {
	case "days":
		if in.ExpiresDays < 1 {
			return license.ExpiryPolicy{}, apperrors.NewValidationError("invalid expires_days")
		}
		p, err := license.DaysPolicy(in.ExpiresDays, in.ExpiresStartOnFirst, in.ExpiresDeleteAfter, s.now())
		if err != nil {
			return license.ExpiryPolicy{}, apperrors.NewValidationError(err.Error())
		}
		return p, nil
	case "date":
		date, err := biztime.ParseDateUTC(in.ExpiresDate)
		if err != nil {
			return license.ExpiryPolicy{}, apperrors.NewValidationError("invalid expires_date format, wanted MM/DD/YYYY")
		}
		p, err := license.DatePolicy(date, in.ExpiresDeleteAfter)
		if err != nil {
			return license.ExpiryPolicy{}, apperrors.NewValidationError(err.Error())
		}
		return p, nil
	case "times":
		if in.ExpiresTimes < 1 {
			return license.ExpiryPolicy{}, apperrors.NewValidationError("invalid expires_times")
		}
		p, err := license.CountPolicy(in.ExpiresTimes, in.ExpiresDeleteAfter)
		if err != nil {
			return license.ExpiryPolicy{}, apperrors.NewValidationError(err.Error())
		}
		return p, nil
	default:
		return license.ExpiryPolicy{}, apperrors.NewValidationError("invalid expires_type, wanted days, date or times")
	}
}

// retentionFromSeconds only applies a retention window when the matching
// cap is set, mirroring how caps and windows are paired on creation.
func retentionFromSeconds(limit, seconds *int) *time.Duration {
	if limit == nil || seconds == nil {
		return nil
	}
	d := time.Duration(*seconds) * time.Second
	return &d
}

func toDTO(l *license.License, plaintext string) LicenseDTO {
	exp := l.Expiry()
	dto := LicenseDTO{
		LicenseID:           l.SID(),
		LicenseKey:          plaintext,
		ProductName:         l.ProductName(),
		Clientname:          l.Clientname(),
		DiscordID:           l.DiscordID(),
		Description:         l.Description(),
		Expires:             exp.Enabled(),
		ExpiresDate:         exp.Date(),
		ExpiresDays:         exp.Days(),
		ExpiresTimes:        exp.MaxUses(),
		ExpiresStartOnFirst: exp.StartOnFirstUse(),
		ExpiresDeleteAfter:  exp.DeleteAfterExpiry(),
		IPCap:               l.IPCap(),
		IPExpires:           secondsFromRetention(l.IPRetention()),
		HWIDCap:             l.HWIDCap(),
		HWIDExpires:         secondsFromRetention(l.HWIDRetention()),
		GeoLock:             l.GeoLock(),
		TotalRequests:       l.TotalRequests(),
		LatestIP:            l.LatestIP(),
		LatestHWID:          l.LatestHWID(),
		LatestRequest:       l.LatestRequest(),
		CreatedBy:           l.CreatedBy(),
		CreatedAt:           l.CreatedAt(),
	}
	if exp.Enabled() {
		dto.ExpiresType = expiresTypeName(exp.Type())
	}
	return dto
}

func expiresTypeName(t license.ExpiryType) string {
	if t == license.ExpiryTypeCount {
		return "times"
	}
	return string(t)
}

func secondsFromRetention(r *time.Duration) *int {
	if r == nil {
		return nil
	}
	s := int(r.Seconds())
	return &s
}
