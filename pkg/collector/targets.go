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

package collector

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
)

// MaxTargetsFileSize caps the size of a targets file.
const MaxTargetsFileSize = 1 << 20

// LoadTargets reads one target per line from path. Blank lines and lines
// starting with # are skipped, as is anything after " #" on a line. Every
// entry must be a valid "host" or "host:port".
func LoadTargets(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "targets file path cannot be empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "failed to read targets file", err,
			map[string]any{"path": path})
	}
	if len(b) > MaxTargetsFileSize {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "targets file too large",
			map[string]any{"path": path, "limit": MaxTargetsFileSize})
	}
	if !utf8.Valid(b) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "targets file is not valid UTF-8",
			map[string]any{"path": path})
	}

	var targets []string
	for i, line := range bytes.Split(b, []byte("\n")) {
		entry := strings.TrimSpace(string(line))
		if idx := strings.Index(entry, " #"); idx >= 0 {
			entry = strings.TrimSpace(entry[:idx])
		}
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if _, _, err := SplitTarget(entry); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid target in file", err,
				map[string]any{"path": path, "line": i + 1})
		}
		targets = append(targets, entry)
	}
	return targets, nil
}

// MergeTargets joins target lists in order, dropping case-insensitive
// repeats.
func MergeTargets(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimSpace(t)
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}
