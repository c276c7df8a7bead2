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

package header

import (
	"time"
)

// Kind is the type of a vsphere-status document.
type Kind string

const (
	// KindInventory is a collection report for one or more targets.
	KindInventory Kind = "Inventory"
)

// Metadata keys set by Init and the collector.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
	MetadataRunID     = "run-id"
	MetadataQuery     = "query"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether the Kind is recognized.
func (k Kind) IsValid() bool {
	return k == KindInventory
}

// Option configures a Header.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the Kind.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// WithAPIVersion sets the schema version of the document.
func WithAPIVersion(version string) Option {
	return func(h *Header) {
		h.APIVersion = version
	}
}

// New creates a Header with the provided options applied.
func New(opts ...Option) *Header {
	h := &Header{
		Metadata: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header carries the kind, schema version and run metadata of a report.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// GetKind returns the Kind.
func (h *Header) GetKind() Kind {
	return h.Kind
}

// GetMetadata returns the metadata map.
func (h *Header) GetMetadata() map[string]string {
	return h.Metadata
}

// Init sets kind and apiVersion and resets the metadata to the UTC
// timestamp and, when non-empty, the tool version. Options are applied last.
func (h *Header) Init(kind Kind, apiVersion, version string, opts ...Option) {
	h.Kind = kind
	h.APIVersion = apiVersion
	h.Metadata = map[string]string{
		MetadataTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if version != "" {
		h.Metadata[MetadataVersion] = version
	}
	for _, opt := range opts {
		opt(h)
	}
}
