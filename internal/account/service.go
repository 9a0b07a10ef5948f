package account

import (
	"context"
	"errors"
	"fmt"

	"identity-gateway/internal/identity"
)

// ErrRoleNotFound is returned when registration names a role the store does
// not know. Roles are provisioned out of band; registration never creates one.
var ErrRoleNotFound = errors.New("role does not exist")

// ErrInvalidCredentials covers both unknown-username and wrong-password
// failures. Keeping them indistinguishable avoids leaking which accounts
// exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements the registration flow and the credential validator on
// top of the external identity store. It holds no state of its own; every
// call is request-scoped.
type Service struct {
	store identity.Store
}

func NewService(store identity.Store) *Service {
	return &Service{store: store}
}

// Register creates an identity and assigns it the named role.
// The role-exists check runs before any mutation: a missing role leaves the
// store untouched. A creation failure (duplicate username, weak password)
// surfaces the store's detail strings and skips role assignment.
func (s *Service) Register(ctx context.Context, username, email, password, role string) error {
	ok, err := s.store.RoleExists(ctx, role)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return ErrRoleNotFound
	}

	id, err := s.store.CreateIdentity(ctx, username, email, password)
	if err != nil {
		return err
	}

	if err := s.store.AssignRole(ctx, id, role); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// Authenticate confirms a username/password pair against the store and
// returns the identity with its role set. Unknown user and wrong password
// both return ErrInvalidCredentials, with no shape difference.
func (s *Service) Authenticate(ctx context.Context, username, password string) (identity.Identity, []string, error) {
	id, found, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return identity.Identity{}, nil, fmt.Errorf("identity lookup: %w", err)
	}
	if !found {
		return identity.Identity{}, nil, ErrInvalidCredentials
	}

	ok, err := s.store.CheckPassword(ctx, id, password)
	if err != nil {
		return identity.Identity{}, nil, fmt.Errorf("password check: %w", err)
	}
	if !ok {
		return identity.Identity{}, nil, ErrInvalidCredentials
	}

	roles, err := s.store.RolesOf(ctx, id)
	if err != nil {
		return identity.Identity{}, nil, fmt.Errorf("roles lookup: %w", err)
	}
	return id, roles, nil
}
