package verification

import "context"

// CountryResolver resolves a caller IP to an ISO country code. Errors
// propagate to the pipeline, which fails closed on a configured geo lock.
type CountryResolver interface {
	Country(ctx context.Context, ip string) (string, error)
}

// TokenIssuer mints the short-lived confirmation token returned on success.
type TokenIssuer interface {
	Issue(licenseSID, productName string) (string, error)
}

// SecretCodec is the key-management collaborator of the pipeline: it turns
// a candidate plaintext into the indexed lookup digest and opens stored
// ciphertexts for the decrypt-and-compare confirmation.
type SecretCodec interface {
	Digest(plaintext string) string
	Decrypt(ciphertext string) (string, error)
}

// StatsRecorder updates the aggregate request counters from terminal
// branches. Recording failures are logged, never surfaced to the caller.
type StatsRecorder interface {
	RecordSuccess(ctx context.Context) error
	RecordRejection(ctx context.Context) error
}
