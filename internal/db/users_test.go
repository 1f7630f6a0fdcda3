// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toeirei/passmaster/internal/model"
)

func TestUsers_CreateFetchSaveDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{ID: model.NewUserID(), Name: "Robert Lee Mitchell", Avatar: 3}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be defaulted")
	}

	got, err := s.FetchUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if got.Name != u.Name || got.Avatar != 3 || got.KeyID != "" || !got.LastUsed.IsZero() {
		t.Fatalf("unexpected user: %+v", got)
	}

	got.KeyID = "abc"
	got.LastUsed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.SaveUser(ctx, got); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	again, err := s.FetchUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("FetchUser after save: %v", err)
	}
	if again.KeyID != "abc" || !again.LastUsed.Equal(got.LastUsed) {
		t.Fatalf("save not persisted: %+v", again)
	}

	byName, err := s.FindUserByName(ctx, "Robert Lee Mitchell")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("FindUserByName: %v %+v", err, byName)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.FetchUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := s.SaveUser(ctx, got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound saving deleted user, got %v", err)
	}
}

func TestUsers_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, &model.User{ID: model.NewUserID(), Name: "alice"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, &model.User{ID: model.NewUserID(), Name: "alice"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUsers_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateUser(ctx, &model.User{Name: "no id"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if err := s.CreateUser(ctx, &model.User{ID: model.NewUserID()}); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestUsers_ListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	users := []*model.User{
		{ID: model.NewUserID(), Name: "zed"},
		{ID: model.NewUserID(), Name: "amy"},
		{ID: model.NewUserID(), Name: "old", LastUsed: now.Add(-time.Hour)},
		{ID: model.NewUserID(), Name: "new", LastUsed: now},
	}
	for _, u := range users {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.Name, err)
		}
	}

	list, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	want := []string{"new", "old", "amy", "zed"}
	if len(list) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(list))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Fatalf("position %d: want %s, got %s", i, name, list[i].Name)
		}
	}
}

func TestUsers_SaveMissingRowKeepsReadFailureDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The update touches no row and the follow-up read fails on the schema.
	if _, err := s.bun.ExecContext(ctx, "ALTER TABLE users RENAME COLUMN created_at TO created"); err != nil {
		t.Fatalf("alter table: %v", err)
	}
	err := s.SaveUser(ctx, &model.User{ID: model.NewUserID(), Name: "ghost"})
	if err == nil {
		t.Fatalf("expected an error saving a missing user")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("read failure reported as ErrNotFound: %v", err)
	}
}
