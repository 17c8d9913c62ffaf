package license

import "context"

// ListFilter narrows List results; zero values match everything.
type ListFilter struct {
	Clientname  string
	ProductName string
}

// Repository defines the interface for license persistence operations.
type Repository interface {
	// Create creates a new license
	Create(ctx context.Context, l *License) error

	// Delete deletes a license by ID
	Delete(ctx context.Context, id uint) error

	// GetByID retrieves a license by ID
	GetByID(ctx context.Context, id uint) (*License, error)

	// GetByDigest retrieves a license by its secret lookup digest.
	// Returns ErrNotFound when no license matches.
	GetByDigest(ctx context.Context, digest string) (*License, error)

	// List retrieves licenses matching the filter
	List(ctx context.Context, filter ListFilter) ([]*License, error)

	// Admit loads the license under an exclusive per-license lock, runs fn
	// against the fresh state and persists the resulting aggregate in the
	// same transaction. If fn returns an error the transaction is rolled
	// back and the error is returned unchanged, so quota and expiry
	// decisions and their writes form one atomic unit per license.
	Admit(ctx context.Context, id uint, fn func(l *License) error) (*License, error)

	// NextSequence atomically advances and returns the sequential
	// license-number counter used for human-readable SIDs.
	NextSequence(ctx context.Context) (uint64, error)
}
