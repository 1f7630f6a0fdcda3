package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/toeirei/passmaster/internal/db"
	"github.com/toeirei/passmaster/internal/model"
)

// fakeBackend is an in-memory Backend that counts calls.
type fakeBackend struct {
	mu        sync.Mutex
	users     map[model.UserID]model.User
	fetches   int
	createErr error
	closed    bool
}

func newFakeBackend(users ...model.User) *fakeBackend {
	f := &fakeBackend{users: make(map[model.UserID]model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeBackend) FetchUser(_ context.Context, id model.UserID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("fetch user %s: %w", id, db.ErrNotFound)
	}
	return &u, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.ID]; ok {
		return db.ErrDuplicate
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeBackend) SaveUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return fmt.Errorf("save user %s: %w", u.ID, db.ErrNotFound)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("already closed")
	}
	f.closed = true
	return nil
}

func (f *fakeBackend) get(id model.UserID) (model.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return u, ok
}

func staticOpener(b Backend) Opener {
	return func(context.Context) (Backend, error) { return b, nil }
}
