package seeds

import (
	"context"
	"fmt"

	"github.com/keygate-io/keygate/internal/infrastructure/auth"
	"github.com/keygate-io/keygate/internal/infrastructure/repository"
	"github.com/keygate-io/keygate/internal/shared/id"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// SeedAPIKeys mints one public and one secret dev API key on a fresh
// database. The plaintext keys are logged exactly once; only bcrypt hashes
// are stored, so losing the log output means minting new keys.
func SeedAPIKeys(ctx context.Context, repo repository.APIKeyRepository, hasher *auth.BcryptKeyHasher, log logger.Interface) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing API keys: %w", err)
	}
	if count > 0 {
		return nil
	}

	keys := []struct {
		name   string
		kind   string
		prefix string
	}{
		{"default-public", repository.APIKeyKindPublic, id.PrefixPublicKey},
		{"default-secret", repository.APIKeyKindSecret, id.PrefixSecretKey},
	}

	for _, k := range keys {
		plaintext, err := id.GenerateWithPrefix(k.prefix, 40)
		if err != nil {
			return fmt.Errorf("failed to generate %s API key: %w", k.kind, err)
		}
		hash, err := hasher.Hash(plaintext)
		if err != nil {
			return fmt.Errorf("failed to hash %s API key: %w", k.kind, err)
		}
		if err := repo.Create(ctx, k.name, k.kind, hash); err != nil {
			return fmt.Errorf("failed to store %s API key: %w", k.kind, err)
		}

		log.Infow("first startup: API key minted, store it now, it will not be shown again",
			"name", k.name,
			"kind", k.kind,
			"key", plaintext,
		)
	}

	return nil
}
