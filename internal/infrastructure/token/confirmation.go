package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keygate-io/keygate/internal/shared/biztime"
)

// Claims are the confirmation token claims: just enough for a client to
// prove a recent successful verification of a specific license and product.
type Claims struct {
	LicenseSID string `json:"license_sid"`
	Product    string `json:"product"`
	jwt.RegisteredClaims
}

// ConfirmationService mints and verifies the short-lived signed token
// returned on successful verification.
type ConfirmationService struct {
	secret []byte
	ttl    time.Duration
}

func NewConfirmationService(secret string, ttlMinutes int) *ConfirmationService {
	if ttlMinutes < 1 {
		ttlMinutes = 10
	}
	return &ConfirmationService{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}
}

// Issue signs a confirmation token for the given license and product.
func (s *ConfirmationService) Issue(licenseSID, productName string) (string, error) {
	now := biztime.NowUTC()
	claims := &Claims{
		LicenseSID: licenseSID,
		Product:    productName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign confirmation token: %w", err)
	}
	return signed, nil
}

// Verify parses a confirmation token and returns its claims.
func (s *ConfirmationService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
