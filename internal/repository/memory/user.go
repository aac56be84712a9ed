// Package memory provides an in-process user repository backing the router tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	"github.com/n1rocket/go-profile-validity/internal/repository"
)

// UserRepository keeps users in a map. It also implements repository.UnitOfWork:
// changes made inside Within are staged and applied together on success.
type UserRepository struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	users map[string]domain.User
	// dirty is only set on staged copies handed out by Within
	dirty map[string]struct{}
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Create stores user and assigns an ID when it has none
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.put(*user)
	return nil
}

// GetByID returns a copy of the stored user
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

// SetEmailValidationHash stores the hash of an outstanding verification secret
func (r *UserRepository) SetEmailValidationHash(_ context.Context, id, hash string) error {
	return r.modify(id, func(u *domain.User) { u.SetEmailValidationHash(hash) })
}

// MarkEmailValid sets email_valid and clears the validation hash
func (r *UserRepository) MarkEmailValid(_ context.Context, id string) error {
	return r.modify(id, func(u *domain.User) { u.MarkEmailValid() })
}

// UpdateProfile merges the non-nil fields of patch
func (r *UserRepository) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) error {
	return r.modify(id, func(u *domain.User) {
		if patch.PasswordHash != nil {
			u.PasswordHash = *patch.PasswordHash
		}
		if patch.Name != nil {
			name := *patch.Name
			u.Name = &name
		}
		if !patch.Empty() {
			u.UpdatedAt = time.Now()
		}
	})
}

// Within runs fn against a staged copy and applies its changes when fn
// returns nil. Transactions are serialized with each other but not with
// direct calls.
func (r *UserRepository) Within(ctx context.Context, fn func(repository.UserRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	staged := &UserRepository{
		users: make(map[string]domain.User, len(r.users)),
		dirty: make(map[string]struct{}),
	}
	for id, u := range r.users {
		staged.users[id] = *clone(u)
	}
	r.mu.RUnlock()

	if err := fn(staged); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range staged.dirty {
		r.users[id] = staged.users[id]
	}
	return nil
}

// Len returns the number of stored users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *UserRepository) modify(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	r.put(u)
	return nil
}

// put stores u; r.mu must be held
func (r *UserRepository) put(u domain.User) {
	r.users[u.ID] = *clone(u)
	if r.dirty != nil {
		r.dirty[u.ID] = struct{}{}
	}
}

func clone(u domain.User) *domain.User {
	if u.Name != nil {
		name := *u.Name
		u.Name = &name
	}
	return &u
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.UnitOfWork     = (*UserRepository)(nil)
)
