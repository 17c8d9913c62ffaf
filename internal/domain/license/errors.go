package license

import "errors"

var (
	// ErrExpired is returned when the license is expired under its policy.
	ErrExpired = errors.New("license is expired")

	// ErrIPCapReached is returned when a new IP would exceed the concurrent IP cap.
	ErrIPCapReached = errors.New("license IP cap reached")

	// ErrHWIDCapReached is returned when a new HWID would exceed the concurrent HWID cap.
	ErrHWIDCapReached = errors.New("license HWID cap reached")

	// ErrNotFound is returned by repositories when no license matches.
	ErrNotFound = errors.New("license not found")
)
