package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local runs. It applies the
// same password policy and uniqueness rules a real backing store would, so
// registration failures look the same against either implementation.
type MemoryStore struct {
	mu         sync.RWMutex
	byUsername map[string]Identity
	roles      map[string]struct{}
	grants     map[string]map[string]struct{} // username -> role set
}

func NewMemoryStore(roles ...string) *MemoryStore {
	s := &MemoryStore{
		byUsername: make(map[string]Identity),
		roles:      make(map[string]struct{}),
		grants:     make(map[string]map[string]struct{}),
	}
	for _, r := range roles {
		s.roles[r] = struct{}{}
	}
	return s
}

func (s *MemoryStore) RoleExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[name]
	return ok, nil
}

func (s *MemoryStore) CreateIdentity(_ context.Context, username, email, password string) (Identity, error) {
	details := passwordPolicyViolations(password)
	if username == "" {
		details = append(details, "username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[username]; exists {
		details = append(details, fmt.Sprintf("username %q is already taken", username))
	}
	if len(details) > 0 {
		return Identity{}, &CreationError{Details: details}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		SecurityStamp: uuid.NewString(),
	}
	s.byUsername[username] = id
	return id, nil
}

func (s *MemoryStore) AssignRole(_ context.Context, id Identity, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role]; !ok {
		return fmt.Errorf("role %q does not exist", role)
	}
	if _, ok := s.byUsername[id.Username]; !ok {
		return fmt.Errorf("identity %q does not exist", id.Username)
	}
	if s.grants[id.Username] == nil {
		s.grants[id.Username] = make(map[string]struct{})
	}
	s.grants[id.Username][role] = struct{}{}
	return nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (Identity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	return id, ok, nil
}

func (s *MemoryStore) CheckPassword(_ context.Context, id Identity, password string) (bool, error) {
	return passwordMatches(id.PasswordHash, password), nil
}

func (s *MemoryStore) RolesOf(_ context.Context, id Identity) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := s.grants[id.Username]
	roles := make([]string, 0, len(grants))
	for r := range grants {
		roles = append(roles, r)
	}
	return roles, nil
}

// Len reports the number of stored identities. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUsername)
}
