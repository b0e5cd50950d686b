package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dkarlovs/shopcore/internal/model"
	"github.com/dkarlovs/shopcore/internal/repository"
)

// memUserStore is an in-memory UserStore with the same uniqueness semantics
// as the real table: one row per email.
type memUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint64]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = *u
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *memUserStore) GetByProvider(_ context.Context, provider, providerID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.AuthProvider == provider && u.AuthProviderID == providerID {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memUserStore) UpdateProviderProfile(_ context.Context, id uint64, name, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Name = name
	u.AuthProviderData = data
	s.users[id] = u
	return nil
}

func (s *memUserStore) LinkProvider(_ context.Context, id uint64, provider, providerID, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.AuthProvider = provider
	u.AuthProviderID = providerID
	u.AuthProviderData = data
	s.users[id] = u
	return nil
}

func (s *memUserStore) setActive(id uint64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.IsActive = active
	s.users[id] = u
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// memRoleStore holds seeded roles and user assignments.
type memRoleStore struct {
	mu        sync.Mutex
	roles     map[string]model.Role // by name
	userRoles map[uint64][]string   // user id -> role names
}

func newMemRoleStore(roles ...model.Role) *memRoleStore {
	s := &memRoleStore{roles: map[string]model.Role{}, userRoles: map[uint64][]string{}}
	for _, r := range roles {
		s.roles[r.Name] = r
	}
	return s
}

func (s *memRoleStore) GetByName(_ context.Context, name string) (model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return model.Role{}, sql.ErrNoRows
	}
	return r, nil
}

func (s *memRoleStore) ListForUser(_ context.Context, userID uint64) ([]model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Role
	for _, name := range s.userRoles[userID] {
		out = append(out, s.roles[name])
	}
	return out, nil
}

func (s *memRoleStore) AssignToUser(_ context.Context, userID, roleID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, r := range s.roles {
		if r.ID == roleID {
			for _, have := range s.userRoles[userID] {
				if have == name {
					return nil
				}
			}
			s.userRoles[userID] = append(s.userRoles[userID], name)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memTokenStore is an in-memory RefreshTokenStore mirroring the live-row
// filter of the real queries.
type memTokenStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   []model.RefreshToken
}

func newMemTokenStore() *memTokenStore { return &memTokenStore{} }

func (s *memTokenStore) Store(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, *t)
	return nil
}

func (s *memTokenStore) ListActive(_ context.Context) ([]model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var out []model.RefreshToken
	for _, t := range s.rows {
		if !t.IsRevoked && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTokenStore) Revoke(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].IsRevoked = true
		}
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].UserID == userID {
			s.rows[i].IsRevoked = true
		}
	}
	return nil
}

func (s *memTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var kept []model.RefreshToken
	var removed int64
	for _, t := range s.rows {
		if t.ExpiresAt.After(now) {
			kept = append(kept, t)
		} else {
			removed++
		}
	}
	s.rows = kept
	return removed, nil
}

func (s *memTokenStore) countLive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.rows {
		if !t.IsRevoked {
			n++
		}
	}
	return n
}
