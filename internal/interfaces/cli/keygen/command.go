package keygen

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keygate-io/keygate/internal/infrastructure/auth"
	"github.com/keygate-io/keygate/internal/infrastructure/config"
	"github.com/keygate-io/keygate/internal/infrastructure/database"
	"github.com/keygate-io/keygate/internal/infrastructure/repository"
	"github.com/keygate-io/keygate/internal/shared/id"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

var (
	env     string
	keyName string
	kind    string
)

// NewCommand creates the keygen command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Mint a new dev API key",
		Long:  `Generate a new API key, store its bcrypt hash and print the plaintext exactly once. The plaintext cannot be recovered later.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&keyName, "name", "n", "", "Unique name for the key (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", repository.APIKeyKindSecret, "Key kind (public or secret)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if kind != repository.APIKeyKindPublic && kind != repository.APIKeyKindSecret {
		return fmt.Errorf("invalid key kind %q, wanted public or secret", kind)
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log := logger.NewLogger()
	keys := repository.NewAPIKeyRepository(database.Get(), log)
	hasher := auth.NewBcryptKeyHasher(cfg.Auth.BcryptCost)

	prefix := id.PrefixSecretKey
	if kind == repository.APIKeyKindPublic {
		prefix = id.PrefixPublicKey
	}

	plaintext, err := id.GenerateWithPrefix(prefix, 40)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := keys.Create(ctx, keyName, kind, hash); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	fmt.Printf("\nAPI key minted. Store it now, it will not be shown again.\n\n")
	fmt.Printf("  Name: %s\n", keyName)
	fmt.Printf("  Kind: %s\n", kind)
	fmt.Printf("  Key:  %s\n\n", plaintext)

	return nil
}
