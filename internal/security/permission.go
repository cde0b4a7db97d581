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

// Package security defines the acting-user identity and the capability
// bitmask granted on archive items.
package security

import "strings"

// Permission is a bitmask of capabilities one user holds on one item.
type Permission int64

const (
	PermNone Permission = 0

	PermRead  Permission = 1 << 0
	PermWrite Permission = 1 << 1

	PermCreateFile   Permission = 1 << 2
	PermCreateFolder Permission = 1 << 3

	// Rename and Move are reserved bits; no operation uses them yet.
	PermRename         Permission = 1 << 4
	PermDelete         Permission = 1 << 5
	PermUpdateMetadata Permission = 1 << 6
	PermMove           Permission = 1 << 7
	PermSetPermissions Permission = 1 << 8

	// PermOwner has every capability bit set, including bits reserved for
	// future operations. Auto-granted to an item's creator on commit.
	PermOwner Permission = -1
)

// Has reports whether every bit of flag is present in p.
func (p Permission) Has(flag Permission) bool {
	return p&flag == flag
}

var permNames = []struct {
	bit  Permission
	name string
}{
	{PermRead, "read"},
	{PermWrite, "write"},
	{PermCreateFile, "create-file"},
	{PermCreateFolder, "create-folder"},
	{PermRename, "rename"},
	{PermDelete, "delete"},
	{PermUpdateMetadata, "update-metadata"},
	{PermMove, "move"},
	{PermSetPermissions, "set-permissions"},
}

// String renders the mask as a comma-separated bit list.
func (p Permission) String() string {
	if p == PermNone {
		return "none"
	}
	if p == PermOwner {
		return "owner"
	}
	var parts []string
	for _, pn := range permNames {
		if p.Has(pn.bit) {
			parts = append(parts, pn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
