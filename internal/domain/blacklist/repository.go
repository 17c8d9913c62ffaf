package blacklist

import "context"

// Repository defines the interface for blacklist persistence operations.
type Repository interface {
	// Create creates a new blacklist entry
	Create(ctx context.Context, e *Entry) error

	// Delete deletes a blacklist entry by ID
	Delete(ctx context.Context, id uint) error

	// List retrieves all blacklist entries
	List(ctx context.Context) ([]*Entry, error)

	// IsBlocked reports whether the given IP or HWID appears on the
	// blacklist. hwid may be empty, in which case only the IP is checked.
	IsBlocked(ctx context.Context, ip, hwid string) (bool, error)
}
