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

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 4 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
)

// MaxPrecision is the number of components vSphere versions carry, as in
// the API version "7.0.3.0".
const MaxPrecision = 4

// Version is a dotted numeric version of a vSphere product or API, such as
// "8.0.2" or "7.0.3.0". Precision records how many components were given
// and bounds comparisons.
type Version struct {
	Major    int `json:"major" yaml:"major"`
	Minor    int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch    int `json:"patch,omitempty" yaml:"patch,omitempty"`
	Revision int `json:"revision,omitempty" yaml:"revision,omitempty"`

	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`
}

// ParseVersion parses "8", "8.0", "8.0.2" or "7.0.3.0". A leading "v" and
// surrounding space are ignored. Components must be plain decimal digits.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	parts := strings.Split(s, ".")
	if len(parts) > MaxPrecision {
		return Version{}, ErrTooManyComponents
	}

	var nums [MaxPrecision]int
	for i, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		nums[i] = n
	}

	return Version{
		Major:     nums[0],
		Minor:     nums[1],
		Patch:     nums[2],
		Revision:  nums[3],
		Precision: len(parts),
	}, nil
}

// MustParseVersion is ParseVersion for constants; it panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(fmt.Sprintf("MustParseVersion: %v", err))
	}
	return v
}

func (v Version) components() [MaxPrecision]int {
	return [MaxPrecision]int{v.Major, v.Minor, v.Patch, v.Revision}
}

// String returns the version with Precision components.
func (v Version) String() string {
	p := v.Precision
	if p < 1 || p > MaxPrecision {
		p = 3
	}
	c := v.components()
	parts := make([]string, p)
	for i := range parts {
		parts[i] = strconv.Itoa(c[i])
	}
	return strings.Join(parts, ".")
}

// Float returns major.minor as a number, the form vSphere API levels are
// compared in: "7.0.3.0" -> 7.0.
func (v Version) Float() float64 {
	f, _ := strconv.ParseFloat(fmt.Sprintf("%d.%d", v.Major, v.Minor), 64)
	return f
}

// Compare returns -1, 0 or 1. Only the components both versions carry are
// compared, so "8.0" equals "8.0.2".
func (v Version) Compare(other Version) int {
	p := min(v.Precision, other.Precision)
	a, b := v.components(), other.components()
	for i := 0; i < p && i < MaxPrecision; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// EqualsOrNewer reports whether v is at least other.
func (v Version) EqualsOrNewer(other Version) bool {
	return v.Compare(other) >= 0
}

// IsValid reports whether the components are non-negative and the
// precision is within range.
func (v Version) IsValid() bool {
	for _, c := range v.components() {
		if c < 0 {
			return false
		}
	}
	return v.Precision >= 1 && v.Precision <= MaxPrecision
}
