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
	"strings"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/version"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/query"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
)

// ServiceMetadata is the identity and handle set returned by
// RetrieveServiceContent. It is loaded once per connection and supplies
// the handles every later query needs.
type ServiceMetadata struct {
	APIVersion            float64 `json:"apiVersion" yaml:"apiVersion"`
	Name                  string  `json:"name,omitempty" yaml:"name,omitempty"`
	FullName              string  `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Version               string  `json:"version,omitempty" yaml:"version,omitempty"`
	Build                 string  `json:"build,omitempty" yaml:"build,omitempty"`
	Vendor                string  `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	OSType                string  `json:"osType,omitempty" yaml:"osType,omitempty"`
	APIType               string  `json:"apiType,omitempty" yaml:"apiType,omitempty"`
	LicenseProductName    string  `json:"licenseProductName,omitempty" yaml:"licenseProductName,omitempty"`
	LicenseProductVersion string  `json:"licenseProductVersion,omitempty" yaml:"licenseProductVersion,omitempty"`

	RootFolder        string `json:"rootFolder,omitempty" yaml:"rootFolder,omitempty"`
	PropertyCollector string `json:"propertyCollector,omitempty" yaml:"propertyCollector,omitempty"`
	SessionManager    string `json:"sessionManager,omitempty" yaml:"sessionManager,omitempty"`
	LicenseManager    string `json:"licenseManager,omitempty" yaml:"licenseManager,omitempty"`
	PerfManager       string `json:"perfManager,omitempty" yaml:"perfManager,omitempty"`
}

// ParseServiceMetadata reads a RetrieveServiceContent reply. Each field is
// taken from the first element of that name. A reply that yields no field
// at all is a protocol error.
func ParseServiceMetadata(env *soap.Envelope) (ServiceMetadata, error) {
	text := func(path string) string {
		if el := env.Find(path); el != nil {
			return strings.TrimSpace(el.Text())
		}
		return ""
	}

	m := ServiceMetadata{
		Name:                  text("about/name"),
		FullName:              text("about/fullName"),
		Version:               text("about/version"),
		Build:                 text("about/build"),
		Vendor:                text("about/vendor"),
		OSType:                text("about/osType"),
		APIType:               text("about/apiType"),
		LicenseProductName:    text("about/licenseProductName"),
		LicenseProductVersion: text("about/licenseProductVersion"),
		RootFolder:            text("rootFolder"),
		PropertyCollector:     text("propertyCollector"),
		SessionManager:        text("sessionManager"),
		LicenseManager:        text("licenseManager"),
		PerfManager:           text("perfManager"),
	}

	if raw := text("about/apiVersion"); raw != "" {
		v, err := parseAPIVersion(raw)
		if err != nil {
			return ServiceMetadata{}, errors.WrapWithContext(errors.ErrCodeProtocol, "invalid apiVersion in service content", err,
				map[string]any{"apiVersion": raw})
		}
		m.APIVersion = v
	}

	if m.Empty() {
		return ServiceMetadata{}, errors.New(errors.ErrCodeProtocol, "service content reply is empty")
	}
	return m, nil
}

// parseAPIVersion keeps the major and minor components: "7.0.3.0" -> 7.0.
func parseAPIVersion(s string) (float64, error) {
	v, err := version.ParseVersion(s)
	if err != nil {
		return 0, err
	}
	return v.Float(), nil
}

// Empty reports whether no field was populated.
func (m ServiceMetadata) Empty() bool {
	return m == ServiceMetadata{}
}

// Params returns the template placeholders backed by this metadata.
func (m ServiceMetadata) Params() map[string]string {
	return map[string]string{
		query.ParamRootFolder:        m.RootFolder,
		query.ParamPropertyCollector: m.PropertyCollector,
		query.ParamSessionManager:    m.SessionManager,
		query.ParamLicenseManager:    m.LicenseManager,
	}
}

// ProductVersion parses the product version, e.g. "8.0.2".
func (m ServiceMetadata) ProductVersion() (version.Version, error) {
	return version.ParseVersion(m.Version)
}
