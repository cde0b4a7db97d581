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

package common

import "errors"

var (
	// ErrNotFound indicates that no item exists at the resolved path.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the acting user lacks the required permission
	// bit, or tried to create another user's root folder.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict indicates a canonical path collision, surfaced at commit.
	// It is the only error a caller may reasonably retry (as a whole
	// operation, never a sub-step).
	ErrConflict = errors.New("conflict")
	// ErrInvalidPath indicates a malformed path string or unsupported scheme.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidItemKind indicates a file was expected but a folder was
	// found, or vice versa.
	ErrInvalidItemKind = errors.New("invalid item kind")
)
