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
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/query"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/vspheretest"
)

func newSession(t *testing.T, srv *vspheretest.Server, mutate ...func(*Config)) *Session {
	t.Helper()
	cfg := Config{
		Host:        srv.Host(),
		Port:        srv.Port(),
		Timeout:     5 * time.Second,
		Username:    vspheretest.Username,
		Password:    vspheretest.Password,
		CookieDir:   t.TempDir(),
		AuthRetries: 1,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func openAndLogin(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Open(t.Context()))
	require.NoError(t, s.Authenticate(t.Context()))
}

func hostPages(n int) []string {
	pages := make([]string, n)
	for i := range pages {
		ref := "host-" + string(rune('a'+i))
		pages[i] = vspheretest.Object("HostSystem", ref, vspheretest.Prop("name", "esx-"+ref))
	}
	return pages
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{Host: "vc01"}, false},
		{"missing host", Config{}, true},
		{"bad port", Config{Host: "vc01", Port: 70000}, true},
		{"bad pages", Config{Host: "vc01", Pages: "some"}, true},
		{"negative retries", Config{Host: "vc01", AuthRetries: -1}, true},
		{"negative rps", Config{Host: "vc01", RequestsPerSecond: -1}, true},
		{"all pages", Config{Host: "vc01", Pages: PagesAll}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 443, tt.cfg.Port)
			assert.Equal(t, 60*time.Second, tt.cfg.Timeout)
			assert.NotEmpty(t, tt.cfg.Pages)
		})
	}
}

func TestOpen(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)

	require.NoError(t, s.Open(t.Context()))
	assert.Equal(t, StateConnected, s.State())
	assert.Equal(t, "group-d1", s.Metadata().RootFolder)
	assert.InDelta(t, 8.0, s.Metadata().APIVersion, 1e-9)
	assert.Equal(t, 1, srv.Calls("RetrieveServiceContent"))

	err := s.Open(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestOpen_EmptyMetadataClosesTransport(t *testing.T) {
	srv := vspheretest.NewServer(t)
	srv.SetServiceContent(vspheretest.EmptyServiceContent)
	s := newSession(t, srv)

	err := s.Open(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProtocol, errors.CodeOf(err))
	assert.Equal(t, StateClosed, s.State())
	assert.True(t, s.transport.Closed())

	// redundant close is safe
	s.Close()
	s.Close()
}

func TestOpen_ConnectionRefused(t *testing.T) {
	srv := vspheretest.NewServer(t)
	host, port := srv.Host(), srv.Port()
	srv.Close()

	s, err := New(Config{Host: host, Port: port, Timeout: time.Second})
	require.NoError(t, err)

	err = s.Open(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConnection, errors.CodeOf(err))
	assert.True(t, s.transport.Closed())
}

func TestAuthenticate_LoginPersistsCookie(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, 1, srv.Calls("Login"))

	data, err := os.ReadFile(s.cookies.Path(srv.Host()))
	require.NoError(t, err)
	assert.Equal(t, `vmware_soap_session="session-1"`, string(data))
}

func TestAuthenticate_ReusesCookie(t *testing.T) {
	srv := vspheretest.NewServer(t)
	dir := t.TempDir()
	srv.AddSession(`vmware_soap_session="persisted"`)
	require.NoError(t, NewCookieStore(dir).Save(srv.Host(), `vmware_soap_session="persisted"`))
	srv.SetObjects("HostSystem", hostPages(1)...)

	s := newSession(t, srv, func(c *Config) { c.CookieDir = dir })
	openAndLogin(t, s)

	resp, err := s.Query(t.Context(), query.HostList, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Objects(), 1)

	assert.Equal(t, 0, srv.Calls("Login"), "a persisted cookie must not trigger a login")
	cookies := srv.Cookies()
	assert.Equal(t, `vmware_soap_session="persisted"`, cookies[len(cookies)-1])
}

func TestAuthenticate_CorruptedCookieLogsIn(t *testing.T) {
	srv := vspheretest.NewServer(t)
	dir := t.TempDir()
	store := NewCookieStore(dir)
	require.NoError(t, os.WriteFile(store.Path(srv.Host()), []byte("\x00\x01garbage"), 0o600))

	s := newSession(t, srv, func(c *Config) { c.CookieDir = dir })
	openAndLogin(t, s)

	assert.Equal(t, 1, srv.Calls("Login"))
	got, ok, err := store.Load(srv.Host())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `vmware_soap_session="session-1"`, got)
}

func TestAuthenticate_InvalidLogin(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv, func(c *Config) { c.Password = "wrong" })
	require.NoError(t, s.Open(t.Context()))

	err := s.Authenticate(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(err))
	assert.Equal(t, 1, srv.Calls("Login"), "rejected credentials are never retried")
	assert.Equal(t, StateClosed, s.State())

	_, ok, err := s.cookies.Load(srv.Host())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_RequiresOpen(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)

	err := s.Authenticate(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestQuery_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		mode      PageMode
		wantPages int
	}{
		{"single page", 1, PagesFirst, 1},
		{"three pages first only", 3, PagesFirst, 1},
		{"three pages all", 3, PagesAll, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := vspheretest.NewServer(t)
			srv.SetObjects("HostSystem", hostPages(tt.pages)...)
			s := newSession(t, srv, func(c *Config) { c.Pages = tt.mode })
			openAndLogin(t, s)

			resp, err := s.Query(t.Context(), query.HostList, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.pages, resp.PageCount)
			assert.Len(t, resp.Pages, tt.wantPages)
			assert.Len(t, resp.Objects(), tt.wantPages)
			assert.Equal(t, 1, srv.Calls("RetrievePropertiesEx"))
			assert.Equal(t, tt.pages-1, srv.Calls("ContinueRetrievePropertiesEx"))
		})
	}
}

func TestQuery_RecoverableExpiry(t *testing.T) {
	srv := vspheretest.NewServer(t)
	srv.SetObjects("HostSystem", hostPages(1)...)
	s := newSession(t, srv)
	openAndLogin(t, s)

	srv.ExpireSessions()

	resp, err := s.Query(t.Context(), query.HostList, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Objects(), 1)

	assert.Equal(t, 2, srv.Calls("Login"), "exactly one re-authentication")
	assert.Equal(t, 2, srv.Calls("RetrievePropertiesEx"), "exactly one retried request")
	assert.Equal(t, StateAuthenticated, s.State())

	got, ok, err := s.cookies.Load(srv.Host())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `vmware_soap_session="session-2"`, got)
}

func TestQuery_RecoverableExpiryRecurs(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	srv.FailNext(vspheretest.NotAuthenticated, vspheretest.NotAuthenticated)

	_, err := s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionExpired, errors.CodeOf(err))
	assert.Equal(t, 2, srv.Calls("Login"))
	assert.Equal(t, 2, srv.Calls("RetrievePropertiesEx"))
	assert.Equal(t, StateClosed, s.State())
	assert.True(t, s.transport.Closed())

	_, ok, err := s.cookies.Load(srv.Host())
	require.NoError(t, err)
	assert.False(t, ok, "expired cookie is deleted")
}

func TestQuery_NoRetryBudget(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv, func(c *Config) { c.AuthRetries = 0 })
	openAndLogin(t, s)

	srv.FailNext(vspheretest.NotAuthenticated)

	_, err := s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionExpired, errors.CodeOf(err))
	assert.Equal(t, 1, srv.Calls("Login"))
}

func TestQuery_UnauthenticatedSessionDoesNotLogIn(t *testing.T) {
	tests := []struct {
		name     string
		username string
	}{
		{"with credentials", vspheretest.Username},
		{"without credentials", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := vspheretest.NewServer(t)
			srv.SetObjects("HostSystem", hostPages(1)...)
			s := newSession(t, srv, func(c *Config) { c.Username = tt.username })
			require.NoError(t, s.Open(t.Context()))

			_, err := s.Query(t.Context(), query.HostList, nil)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(err))
			assert.Equal(t, 0, srv.Calls("Login"))
			assert.Equal(t, 1, srv.Calls("RetrievePropertiesEx"))
			assert.Equal(t, StateClosed, s.State())
		})
	}
}

func TestQuery_FatalExpiry(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	srv.FailNext(vspheretest.NotAuthenticatedFatal)

	_, err := s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionExpired, errors.CodeOf(err))
	assert.Equal(t, 1, srv.Calls("Login"), "zero re-authentications")
	assert.Equal(t, 1, srv.Calls("RetrievePropertiesEx"), "zero retries")
	assert.True(t, s.transport.Closed())
}

func TestQuery_OtherFault(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	srv.FailNext(vspheretest.InvalidProperty)

	_, err := s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProtocol, errors.CodeOf(err))
	assert.Equal(t, StateClosed, s.State())

	_, err = s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestQuery_FaultDuringContinuation(t *testing.T) {
	srv := vspheretest.NewServer(t)
	srv.SetObjects("HostSystem", hostPages(2)...)
	s := newSession(t, srv)
	openAndLogin(t, s)

	// first page comes from the queue with a token, continuation fails
	srv.FailNext(`<RetrievePropertiesExResponse xmlns="urn:vim25"><returnval><token>HostSystem:1</token>`+
		hostPages(1)[0]+`</returnval></RetrievePropertiesExResponse>`, vspheretest.InvalidProperty)

	_, err := s.Query(t.Context(), query.HostList, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProtocol, errors.CodeOf(err))
	assert.Equal(t, 1, srv.Calls("ContinueRetrievePropertiesEx"))
}

func TestQuery_EscapesParams(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	require.NoError(t, s.Open(t.Context()))

	// credentials with markup reach the server intact
	require.NoError(t, s.Authenticate(t.Context()))
	assert.True(t, strings.ContainsAny(vspheretest.Password, "&<>"))
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestLogout(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	s.Logout(t.Context())
	assert.Equal(t, 1, srv.Calls("Logout"))
	assert.Equal(t, StateConnected, s.State())

	_, ok, err := s.cookies.Load(srv.Host())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout_SwallowsFailures(t *testing.T) {
	srv := vspheretest.NewServer(t)
	s := newSession(t, srv)
	openAndLogin(t, s)

	srv.Close()
	s.Logout(t.Context())

	_, ok, err := s.cookies.Load(s.Host())
	require.NoError(t, err)
	assert.False(t, ok)

	// after close nothing is sent
	s.Close()
	s.Logout(t.Context())
}

func TestQuery_RateLimited(t *testing.T) {
	srv := vspheretest.NewServer(t)
	srv.SetObjects("HostSystem", hostPages(1)...)
	s := newSession(t, srv)
	s.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	// the single token is spent by Open; the next request waits past the deadline
	require.NoError(t, s.Open(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	err := s.Authenticate(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConnection, errors.CodeOf(err))
	assert.Equal(t, 0, srv.Calls("Login"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
