// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package scope

import "fmt"

// Role names the flow of execution a scope is confined to.
type Role int

const (
	// Main is the single UI-bound flow. There is exactly one main scope.
	Main Role = iota
	// Background is any worker flow. Each background scope belongs to the
	// one flow that requested it.
	Background
)

func (r Role) String() string {
	switch r {
	case Main:
		return "main"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts "main" or "background" into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "main":
		return Main, nil
	case "background":
		return Background, nil
	default:
		return 0, fmt.Errorf("unknown scope role %q", s)
	}
}
