// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keyderiv turns a user's master password into session key material.
package keyderiv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"

	"github.com/toeirei/passmaster/internal/security"
)

var (
	ErrEmptyName     = errors.New("keyderiv: empty user name")
	ErrEmptyPassword = errors.New("keyderiv: empty password")
)

// Scrypt derives keys with scrypt. The salt is built from Namespace and the
// user name, so the same password yields different keys for different users.
type Scrypt struct {
	N, R, P   int
	KeyLen    int
	Namespace string
}

// DefaultScrypt is the parameter set used unless configuration overrides it.
var DefaultScrypt = Scrypt{N: 1 << 15, R: 8, P: 2, KeyLen: 64, Namespace: "passmaster"}

// Derive returns KeyLen bytes derived from password. The caller owns the
// result and should Zero it when done.
func (s Scrypt) Derive(name string, password security.Secret) (security.Secret, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	var key []byte
	err := password.Use(func(pw []byte) error {
		var err error
		key, err = scrypt.Key(pw, s.salt(name), s.N, s.R, s.P, s.KeyLen)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("keyderiv: %w", err)
	}
	return security.Secret(key), nil
}

func (s Scrypt) salt(name string) []byte {
	salt := make([]byte, 0, len(s.Namespace)+4+len(name))
	salt = append(salt, s.Namespace...)
	salt = binary.BigEndian.AppendUint32(salt, uint32(len(name)))
	return append(salt, name...)
}
