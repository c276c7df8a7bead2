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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/query"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/vspheretest"
)

func envelope(t *testing.T, body string) *soap.Envelope {
	t.Helper()
	env, err := soap.Parse([]byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>` +
		body + `</soapenv:Body></soapenv:Envelope>`))
	require.NoError(t, err)
	return env
}

func TestParseServiceMetadata(t *testing.T) {
	m, err := ParseServiceMetadata(envelope(t, vspheretest.ServiceContent))
	require.NoError(t, err)

	assert.Equal(t, ServiceMetadata{
		APIVersion:            8.0,
		Name:                  "VMware vCenter Server",
		FullName:              "VMware vCenter Server 8.0.2 build-22617221",
		Version:               "8.0.2",
		Build:                 "22617221",
		Vendor:                "VMware, Inc.",
		OSType:                "linux-x64",
		APIType:               "VirtualCenter",
		LicenseProductName:    "VMware VirtualCenter Server",
		LicenseProductVersion: "8.0",
		RootFolder:            "group-d1",
		PropertyCollector:     "propertyCollector",
		SessionManager:        "SessionManager",
		LicenseManager:        "LicenseManager",
		PerfManager:           "PerfMgr",
	}, m)

	assert.Equal(t, map[string]string{
		query.ParamRootFolder:        "group-d1",
		query.ParamPropertyCollector: "propertyCollector",
		query.ParamSessionManager:    "SessionManager",
		query.ParamLicenseManager:    "LicenseManager",
	}, m.Params())

	v, err := m.ProductVersion()
	require.NoError(t, err)
	assert.Equal(t, "8.0.2", v.String())
}

func TestParseServiceMetadata_Empty(t *testing.T) {
	_, err := ParseServiceMetadata(envelope(t, vspheretest.EmptyServiceContent))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProtocol, errors.CodeOf(err))
}

func TestParseServiceMetadata_BadAPIVersion(t *testing.T) {
	_, err := ParseServiceMetadata(envelope(t,
		`<RetrieveServiceContentResponse><returnval><about><apiVersion>eight</apiVersion></about></returnval></RetrieveServiceContentResponse>`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProtocol, errors.CodeOf(err))
}

func TestParseAPIVersion(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"7.0.3.0", 7.0},
		{"6.7", 6.7},
		{"6.5.1", 6.5},
		{"5", 5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAPIVersion(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestServiceMetadata_Empty(t *testing.T) {
	assert.True(t, ServiceMetadata{}.Empty())
	assert.False(t, ServiceMetadata{RootFolder: "group-d1"}.Empty())
	assert.False(t, ServiceMetadata{APIVersion: 6.7}.Empty())
}
