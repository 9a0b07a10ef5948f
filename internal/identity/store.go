package identity

import (
	"context"
	"strings"
)

// Identity is the external store's user record. The gateway only reads it
// during login or asks the store to create one during registration; it never
// mutates an existing identity.
type Identity struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	SecurityStamp string
}

// CreationError carries the store's human-readable failure details
// (duplicate username, password policy violations). Details are surfaced
// joined in the registration response.
type CreationError struct {
	Details []string
}

func (e *CreationError) Error() string {
	return "identity creation failed: " + strings.Join(e.Details, ", ")
}

// Store is the capability interface over the external identity store.
// Implementations must be safe for concurrent use. Lookups and writes are
// the only potentially-latent I/O in the gateway; failures propagate without
// retry.
type Store interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateIdentity(ctx context.Context, username, email, password string) (Identity, error)
	AssignRole(ctx context.Context, id Identity, role string) error
	FindByUsername(ctx context.Context, username string) (Identity, bool, error)
	CheckPassword(ctx context.Context, id Identity, password string) (bool, error)
	RolesOf(ctx context.Context, id Identity) ([]string, error)
}
