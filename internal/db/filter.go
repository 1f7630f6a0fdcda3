// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"strings"

	"github.com/toeirei/passmaster/internal/model"
)

// FilterUsersByTokens returns the users whose name or identifier contains
// every token, ignoring case. Blank tokens are skipped; with no tokens the
// input is returned unchanged.
func FilterUsersByTokens(users []model.User, tokens []string) []model.User {
	if len(tokens) == 0 {
		return users
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		name := strings.ToLower(u.Name)
		id := strings.ToLower(u.ID.String())

		matched := true
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if !strings.Contains(name, tok) && !strings.Contains(id, tok) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, u)
		}
	}
	return out
}
