package db

import (
	"time"

	"github.com/toeirei/passmaster/internal/model"
	"github.com/uptrace/bun"
)

// UserModel maps the users table.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	ID            string    `bun:"id,pk"`
	Name          string    `bun:"name,notnull"`
	KeyID         string    `bun:"key_id,nullzero"`
	Avatar        int       `bun:"avatar,notnull"`
	LastUsed      time.Time `bun:"last_used,nullzero"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// PreferenceModel maps the preferences table.
type PreferenceModel struct {
	bun.BaseModel `bun:"table:preferences"`
	Key           string `bun:"pref_key,pk"`
	Value         string `bun:"pref_value,notnull"`
}

func userModelToModel(m UserModel) model.User {
	return model.User{
		ID:        model.UserID(m.ID),
		Name:      m.Name,
		KeyID:     m.KeyID,
		Avatar:    m.Avatar,
		LastUsed:  m.LastUsed,
		CreatedAt: m.CreatedAt,
	}
}

func userToModel(u *model.User) *UserModel {
	return &UserModel{
		ID:        u.ID.String(),
		Name:      u.Name,
		KeyID:     u.KeyID,
		Avatar:    u.Avatar,
		LastUsed:  u.LastUsed,
		CreatedAt: u.CreatedAt,
	}
}
