// Copyright 2025 JulesFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package security

import "github.com/google/uuid"

// AdminRole is the role name that bypasses every permission check.
const AdminRole = "admin"

// User identifies the acting caller of an archive operation. Identity is
// established by an external service; the archive only consumes it. User is
// passed explicitly through every core call so that authorization has no
// hidden ambient state.
type User struct {
	// ID is the stable unique user id. Permission rows reference it.
	ID string
	// Name maps to the user's root folder segment under the namespace root.
	Name string
	// Roles are the role names assigned to the user.
	Roles []string
}

// NewUser creates a user with a fresh id.
func NewUser(name string, roles ...string) User {
	return User{ID: uuid.NewString(), Name: name, Roles: roles}
}

// HasRole reports whether the user carries the named role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the administrative role.
func (u User) IsAdmin() bool {
	return u.HasRole(AdminRole)
}
