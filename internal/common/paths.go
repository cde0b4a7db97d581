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

import (
	"fmt"
	"path"
	"strings"
)

// Canonical paths are file-scheme absolute URIs. Folders always end in a
// separator, files never do. The namespace root is RootPath, which owns no
// item row; the immediate children of the root are per-user root folders.
const (
	Scheme   = "file://"
	RootPath = "file:///"
)

// Canonicalize turns an arbitrary path string into its canonical absolute
// form. Absolute file-scheme URIs and root-relative paths are accepted;
// any other scheme fails with ErrInvalidPath. Canonicalization is
// idempotent and case-preserving.
func Canonicalize(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidPath)
	}

	p := raw
	if i := strings.Index(raw, "://"); i >= 0 {
		if raw[:i] != "file" {
			return "", fmt.Errorf("scheme %q in %q: %w", raw[:i], raw, ErrInvalidPath)
		}
		p = raw[i+len("://"):]
		// A non-empty authority component (file://host/...) is not part of
		// the namespace.
		if p == "" || p[0] != '/' {
			return "", fmt.Errorf("authority in %q: %w", raw, ErrInvalidPath)
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	folder := strings.HasSuffix(p, "/")
	p = path.Clean(p)
	if p == "/" {
		return RootPath, nil
	}
	if folder {
		p += "/"
	}
	return Scheme + p, nil
}

// BuildPath computes a child's canonical path from its parent's canonical
// path, its name and its kind. An empty parent denotes the namespace root.
func BuildPath(parentPath, name string, isFolder bool) string {
	p := parentPath
	if p == "" {
		p = RootPath
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	n := strings.Trim(name, "/")
	if isFolder {
		n += "/"
	}
	return p + n
}

// ParentPath returns the canonical path of the item's parent folder.
// The parent of the root is the root itself.
func ParentPath(canonical string) string {
	p := strings.TrimPrefix(canonical, Scheme)
	p = strings.TrimSuffix(p, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return RootPath
	}
	return Scheme + p[:i+1]
}

// Leaf returns the last path segment, without separators.
func Leaf(canonical string) string {
	p := strings.TrimPrefix(canonical, Scheme)
	p = strings.TrimSuffix(p, "/")
	i := strings.LastIndex(p, "/")
	return p[i+1:]
}

// IsRoot reports whether the canonical path is the namespace root boundary.
func IsRoot(canonical string) bool {
	return canonical == RootPath
}

// IsFolderPath reports whether the canonical path denotes a folder.
func IsFolderPath(canonical string) bool {
	return strings.HasSuffix(canonical, "/")
}
