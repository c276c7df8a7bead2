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
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/header"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/session"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/vspheretest"
)

func populated(t *testing.T) *vspheretest.Server {
	t.Helper()
	srv := vspheretest.NewServer(t)
	srv.SetObjects("HostSystem", vspheretest.Object("HostSystem", "host-10",
		vspheretest.Prop("name", "esx01.example.com"),
		vspheretest.Prop("hardware.memorySize", "274877906944")))
	srv.SetObjects("Datastore", vspheretest.Object("Datastore", "datastore-11",
		vspheretest.Prop("summary.name", "vsanDatastore")))
	srv.SetObjects("LicenseManager", vspheretest.Object("LicenseManager", "LicenseManager",
		vspheretest.Prop("licenses", `<LicenseManagerLicenseInfo><name>vCenter Server 8 Standard</name>`+
			`<total>1</total><used>1</used></LicenseManagerLicenseInfo>`)))
	return srv
}

func target(srv *vspheretest.Server) string {
	return fmt.Sprintf("%s:%d", srv.Host(), srv.Port())
}

func newCollector(t *testing.T, query QuerySet) *Collector {
	t.Helper()
	return &Collector{
		Version: "v0.0.0-test",
		Session: session.Config{
			Timeout:     5 * time.Second,
			Username:    vspheretest.Username,
			Password:    vspheretest.Password,
			CookieDir:   t.TempDir(),
			AuthRetries: 1,
		},
		Query: query,
	}
}

func TestCollect_All(t *testing.T) {
	srv := populated(t)
	c := newCollector(t, QueryAll)

	r, err := c.Collect(t.Context(), target(srv))
	require.NoError(t, err)

	assert.Equal(t, "VMware vCenter Server", r.System.Name)
	require.Contains(t, r.Hosts, "esx01.example.com")
	assert.Equal(t, "274877906944", r.Hosts["esx01.example.com"].First("hardware.memorySize"))
	require.Len(t, r.Licenses, 1)
	assert.Equal(t, "vCenter Server 8 Standard", r.Licenses[0].Name)
	assert.Contains(t, r.Datastores, "datastore-11")
	assert.Nil(t, r.HostList)
	assert.Equal(t, 1, srv.Calls("Login"))
}

func TestCollect_AboutSkipsLogin(t *testing.T) {
	srv := populated(t)
	c := newCollector(t, QueryAbout)

	r, err := c.Collect(t.Context(), target(srv))
	require.NoError(t, err)

	assert.Equal(t, "8.0.2", r.System.Version)
	assert.Equal(t, "8.0.2", r.ProductVersion)
	assert.Empty(t, r.Hosts)
	assert.Equal(t, 0, srv.Calls("Login"))
	assert.Equal(t, 1, srv.TotalCalls())
}

func TestCollect_UnparseableProductVersion(t *testing.T) {
	srv := populated(t)
	srv.SetServiceContent(strings.Replace(vspheretest.ServiceContent,
		"<version>8.0.2</version>", "<version>8.0U2</version>", 1))
	c := newCollector(t, QueryAbout)

	r, err := c.Collect(t.Context(), target(srv))
	require.NoError(t, err)
	assert.Equal(t, "8.0U2", r.System.Version)
	assert.Empty(t, r.ProductVersion)
}

func TestCollect_SingleQuery(t *testing.T) {
	tests := []struct {
		query QuerySet
		check func(t *testing.T, r *TargetReport)
	}{
		{QueryHosts, func(t *testing.T, r *TargetReport) {
			assert.Len(t, r.Hosts, 1)
			assert.Nil(t, r.Licenses)
			assert.Nil(t, r.Datastores)
		}},
		{QueryHostList, func(t *testing.T, r *TargetReport) {
			require.Len(t, r.HostList, 1)
			assert.Equal(t, "esx01.example.com", r.HostList[0].Name)
			assert.Nil(t, r.Hosts)
		}},
		{QueryLicenses, func(t *testing.T, r *TargetReport) {
			assert.Len(t, r.Licenses, 1)
			assert.Nil(t, r.Hosts)
		}},
		{QueryDatastores, func(t *testing.T, r *TargetReport) {
			assert.Len(t, r.Datastores, 1)
			assert.Nil(t, r.Licenses)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.query), func(t *testing.T) {
			srv := populated(t)
			r, err := newCollector(t, tt.query).Collect(t.Context(), target(srv))
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestCollect_Logout(t *testing.T) {
	srv := populated(t)
	c := newCollector(t, QueryLicenses)
	c.Logout = true

	_, err := c.Collect(t.Context(), target(srv))
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Calls("Logout"))

	_, ok, err := session.NewCookieStore(c.Session.CookieDir).Load(srv.Host())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollect_KeepsCookieWithoutLogout(t *testing.T) {
	srv := populated(t)
	c := newCollector(t, QueryLicenses)

	_, err := c.Collect(t.Context(), target(srv))
	require.NoError(t, err)
	_, err = c.Collect(t.Context(), target(srv))
	require.NoError(t, err)

	assert.Equal(t, 1, srv.Calls("Login"), "second run resumes the persisted session")
	assert.Equal(t, 0, srv.Calls("Logout"))
}

func TestCollect_QueryFailure(t *testing.T) {
	srv := populated(t)
	srv.FailNext(vspheretest.NotAuthenticatedFatal)
	c := newCollector(t, QueryAll)

	r, err := c.Collect(t.Context(), target(srv))
	require.Error(t, err)
	assert.Nil(t, r)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionExpired))
}

func TestRun_MultipleTargets(t *testing.T) {
	a, b := populated(t), populated(t)
	c := newCollector(t, QueryHosts)
	// both fake servers listen on the same host; keep their cookies apart
	c.Session.CookieDir = ""

	report, err := c.Run(t.Context(), []string{target(a), target(b)})
	require.NoError(t, err)

	assert.Equal(t, header.KindInventory, report.Kind)
	assert.Equal(t, APIVersion, report.APIVersion)
	assert.Equal(t, "hosts", report.Metadata[header.MetadataQuery])
	assert.NotEmpty(t, report.Metadata[header.MetadataRunID])
	require.Len(t, report.Targets, 2)
	assert.Equal(t, target(a), report.Targets[0].Target)
	assert.Equal(t, target(b), report.Targets[1].Target)
	assert.Equal(t, 1, a.Calls("Login"))
	assert.Equal(t, 1, b.Calls("Login"))
}

func TestRun_Validation(t *testing.T) {
	c := newCollector(t, QueryAll)

	_, err := c.Run(t.Context(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = c.Run(t.Context(), []string{"vc01:443", "VC01:443"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestRun_OneTargetFails(t *testing.T) {
	good := populated(t)
	bad := vspheretest.NewServer(t)
	bad.SetServiceContent(vspheretest.EmptyServiceContent)

	c := newCollector(t, QueryAbout)
	report, err := c.Run(t.Context(), []string{target(good), target(bad)})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProtocol))
}

func TestMeasure(t *testing.T) {
	srv := populated(t)
	var buf bytes.Buffer
	c := newCollector(t, QueryAbout)
	c.Serializer = serializer.NewWriter(serializer.FormatJSON, &buf)

	require.NoError(t, c.Measure(t.Context(), []string{target(srv)}))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Inventory", out["kind"])
	targets, ok := out["targets"].([]any)
	require.True(t, ok)
	require.Len(t, targets, 1)
	system := targets[0].(map[string]any)["system"].(map[string]any)
	assert.Equal(t, "group-d1", system["rootFolder"])
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"vc01.example.com", "vc01.example.com", 0, false},
		{"vc01.example.com:8443", "vc01.example.com", 8443, false},
		{" 10.0.0.5:443 ", "10.0.0.5", 443, false},
		{"[fd00::5]:443", "fd00::5", 443, false},
		{"fd00::5", "fd00::5", 0, false},
		{"vc01:http", "", 0, true},
		{"vc01:0", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port, err := SplitTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestParseQuerySet(t *testing.T) {
	for _, name := range SupportedQuerySets() {
		q, err := ParseQuerySet(name)
		require.NoError(t, err)
		assert.Equal(t, QuerySet(name), q)
	}

	q, err := ParseQuerySet(" Hosts ")
	require.NoError(t, err)
	assert.Equal(t, QueryHosts, q)

	_, err = ParseQuerySet("vms")
	assert.Error(t, err)

	assert.False(t, QueryAbout.NeedsLogin())
	assert.True(t, QueryLicenses.NeedsLogin())
	assert.True(t, QueryAll.includes(QueryDatastores))
	assert.False(t, QueryHosts.includes(QueryHostList))
	assert.False(t, QueryAll.includes(QueryHostList))
}
