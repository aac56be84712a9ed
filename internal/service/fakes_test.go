package service

import (
	"context"
	"errors"
	"sync"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	"github.com/n1rocket/go-profile-validity/internal/email"
	"github.com/n1rocket/go-profile-validity/internal/repository"
)

type fakeUserRepository struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	markErr  error
	patchErr error
}

func newFakeUserRepository(users ...*domain.User) *fakeUserRepository {
	r := &fakeUserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepository) SetEmailValidationHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SetEmailValidationHash(hash)
	return nil
}

func (r *fakeUserRepository) MarkEmailValid(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.MarkEmailValid()
	return nil
}

func (r *fakeUserRepository) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patchErr != nil {
		return r.patchErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.Name != nil {
		name := *patch.Name
		u.Name = &name
	}
	return nil
}

func (r *fakeUserRepository) get(id string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

// fakeUnitOfWork restores the repository snapshot when fn fails
type fakeUnitOfWork struct {
	repo      *fakeUserRepository
	rollbacks int
}

func (u *fakeUnitOfWork) Within(ctx context.Context, fn func(repository.UserRepository) error) error {
	u.repo.mu.Lock()
	snapshot := make(map[string]domain.User, len(u.repo.users))
	for id, user := range u.repo.users {
		snapshot[id] = *user
	}
	u.repo.mu.Unlock()

	if err := fn(u.repo); err != nil {
		u.repo.mu.Lock()
		for id, user := range snapshot {
			cp := user
			u.repo.users[id] = &cp
		}
		u.repo.mu.Unlock()
		u.rollbacks++
		return err
	}
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []email.Email
	err  error
}

func (d *fakeDispatcher) Enqueue(e email.Email) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, e)
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type fixedSecret string

func (f fixedSecret) Generate() string { return string(f) }

type recordedEvents struct {
	issued   int
	confirms []string
	emails   []string
}

func (r *recordedEvents) VerificationIssued()     { r.issued++ }
func (r *recordedEvents) ConfirmOutcome(o string) { r.confirms = append(r.confirms, o) }
func (r *recordedEvents) ObserveEmail(o string)   { r.emails = append(r.emails, o) }

var errDatabaseDown = errors.New("database down")
