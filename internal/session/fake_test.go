package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/toeirei/passmaster/internal/db"
	"github.com/toeirei/passmaster/internal/identity"
	"github.com/toeirei/passmaster/internal/model"
	"github.com/toeirei/passmaster/internal/scope"
	"github.com/toeirei/passmaster/internal/security"
)

// memBackend is an in-memory scope.Backend.
type memBackend struct {
	mu    sync.Mutex
	users map[model.UserID]model.User

	// beforeSave, when set, runs at the start of every SaveUser call.
	beforeSave func()
}

func newMemBackend(users ...model.User) *memBackend {
	b := &memBackend{users: make(map[model.UserID]model.User)}
	for _, u := range users {
		b.users[u.ID] = u
	}
	return b
}

func (b *memBackend) FetchUser(_ context.Context, id model.UserID) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return nil, fmt.Errorf("fetch user %s: %w", id, db.ErrNotFound)
	}
	return &u, nil
}

func (b *memBackend) CreateUser(_ context.Context, u *model.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[u.ID]; ok {
		return db.ErrDuplicate
	}
	b.users[u.ID] = *u
	return nil
}

func (b *memBackend) SaveUser(_ context.Context, u *model.User) error {
	if b.beforeSave != nil {
		b.beforeSave()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[u.ID]; !ok {
		return fmt.Errorf("save user %s: %w", u.ID, db.ErrNotFound)
	}
	b.users[u.ID] = *u
	return nil
}

func (b *memBackend) get(id model.UserID) (model.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	return u, ok
}

func (b *memBackend) remove(id model.UserID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, id)
}

// memPrefs is an in-memory PreferenceStore with an injectable write error.
type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemPrefs() *memPrefs { return &memPrefs{values: make(map[string]string)} }

func (p *memPrefs) GetPreference(_ context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *memPrefs) SetPreference(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return p.setErr
	}
	p.values[key] = value
	return nil
}

func (p *memPrefs) DeletePreference(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

func (p *memPrefs) stored() (string, bool) {
	v, ok, _ := p.GetPreference(context.Background(), ActiveUserPreference)
	return v, ok
}

// fakeDeriver derives a deterministic key from name and password.
type fakeDeriver struct{}

func (fakeDeriver) Derive(name string, password security.Secret) (security.Secret, error) {
	return security.FromString(name + ":" + string(password.Bytes())), nil
}

type fixture struct {
	backend  *memBackend
	prefs    *memPrefs
	accessor *scope.Accessor
	coord    *Coordinator
}

func newFixture(t *testing.T, users ...model.User) *fixture {
	t.Helper()
	f := &fixture{backend: newMemBackend(users...), prefs: newMemPrefs()}
	f.accessor = scope.NewAccessor(func(context.Context) (scope.Backend, error) { return f.backend, nil })
	f.coord = New(f.accessor, identity.NewResolver(f.accessor), f.prefs)
	t.Cleanup(func() {
		f.coord.Close()
		_ = f.accessor.Close()
	})
	return f
}

func (f *fixture) handle(t *testing.T, role scope.Role, id model.UserID) *scope.UserHandle {
	t.Helper()
	sc, err := f.accessor.ScopeFor(context.Background(), role)
	if err != nil {
		t.Fatalf("ScopeFor(%s): %v", role, err)
	}
	h, err := identity.NewResolver(f.accessor).Resolve(context.Background(), id, sc)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", id, err)
	}
	return h
}

func newUser(name string) model.User {
	return model.User{ID: model.NewUserID(), Name: name}
}
