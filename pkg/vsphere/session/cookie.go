// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package session

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
)

const (
	cookieFileMode = 0o600
	cookieDirMode  = 0o700
)

// CookieStore persists one session cookie per target under a base
// directory. The zero value and a store with an empty directory keep
// nothing: Load always reports absent and Save/Remove are no-ops.
type CookieStore struct {
	dir string
}

// NewCookieStore returns a store rooted at dir. The directory is created
// on first Save.
func NewCookieStore(dir string) *CookieStore {
	return &CookieStore{dir: dir}
}

// Enabled reports whether cookies are persisted at all.
func (c *CookieStore) Enabled() bool {
	return c != nil && c.dir != ""
}

// Path returns the cookie file for host.
func (c *CookieStore) Path(host string) string {
	return filepath.Join(c.dir, cookieFileName(host))
}

// Load reads the cookie for host. A missing, empty or corrupted file is
// reported as absent so the caller logs in again.
func (c *CookieStore) Load(host string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}

	data, err := os.ReadFile(c.Path(host))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.WrapWithContext(errors.ErrCodeConnection, "failed to read session cookie", err,
			map[string]any{"path": c.Path(host)})
	}

	cookie := strings.TrimSpace(string(data))
	if !validCookie(cookie) {
		return "", false, nil
	}
	return cookie, true, nil
}

// Save writes the cookie for host with owner-only permissions. The file is
// replaced atomically so a concurrent reader never sees a partial value.
func (c *CookieStore) Save(host, cookie string) error {
	if !c.Enabled() {
		return nil
	}

	if err := os.MkdirAll(c.dir, cookieDirMode); err != nil {
		return errors.WrapWithContext(errors.ErrCodeConnection, "failed to create cookie directory", err,
			map[string]any{"dir": c.dir})
	}

	tmp, err := os.CreateTemp(c.dir, "."+cookieFileName(host)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnection, "failed to create session cookie", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(cookieFileMode); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeConnection, "failed to restrict session cookie", err)
	}
	if _, err := tmp.WriteString(cookie); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeConnection, "failed to write session cookie", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeConnection, "failed to write session cookie", err)
	}
	if err := os.Rename(tmpName, c.Path(host)); err != nil {
		return errors.WrapWithContext(errors.ErrCodeConnection, "failed to store session cookie", err,
			map[string]any{"path": c.Path(host)})
	}
	return nil
}

// Remove deletes the cookie for host. A missing file is not an error.
func (c *CookieStore) Remove(host string) error {
	if !c.Enabled() {
		return nil
	}
	if err := os.Remove(c.Path(host)); err != nil && !os.IsNotExist(err) {
		return errors.WrapWithContext(errors.ErrCodeConnection, "failed to remove session cookie", err,
			map[string]any{"path": c.Path(host)})
	}
	return nil
}

// cookieFileName maps a hostname to a single safe path element.
func cookieFileName(host string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(host))

	if name == "" || strings.Trim(name, ".") == "" {
		return "_" + name
	}
	return name
}

// validCookie accepts a single name=value pair without control characters.
func validCookie(s string) bool {
	name, _, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
