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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/session"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/vspheretest"
)

func fakeVCenter(t *testing.T) (*vspheretest.Server, string) {
	t.Helper()
	srv := vspheretest.NewServer(t)
	srv.SetObjects("HostSystem", vspheretest.Object("HostSystem", "host-10",
		vspheretest.Prop("name", "esx01.example.com")))
	return srv, fmt.Sprintf("%s:%d", srv.Host(), srv.Port())
}

func newTestServer(t *testing.T, password string, targets ...string) *Server {
	t.Helper()
	cfg := NewConfig()
	cfg.Targets = targets
	cfg.RateLimit = 100
	cfg.RateLimitBurst = 100
	cfg.CollectTimeout = 10 * time.Second

	s, err := New(cfg, &collector.Collector{
		Version: "v0.0.0-test",
		Session: session.Config{
			Timeout:     5 * time.Second,
			Username:    vspheretest.Username,
			Password:    password,
			CookieDir:   t.TempDir(),
			AuthRetries: 1,
		},
	})
	require.NoError(t, err)
	s.SetReady(true)
	return s
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestNew_Validation(t *testing.T) {
	_, err := New(NewConfig(), &collector.Collector{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	cfg := NewConfig()
	cfg.Targets = []string{"vc01"}
	_, err = New(cfg, nil)
	require.Error(t, err)
}

func TestHandleCollect_About(t *testing.T) {
	srv, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	rec := get(t, s, CollectPath+"?target="+target+"&query=about")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	var report collector.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Targets, 1)
	assert.Equal(t, "8.0.2", report.Targets[0].System.Version)
	assert.Equal(t, 0, srv.Calls("Login"))
}

func TestHandleCollect_HostsReusesSession(t *testing.T) {
	srv, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	for range 2 {
		rec := get(t, s, CollectPath+"?target="+target+"&query=hosts")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "esx01.example.com")
	}
	assert.Equal(t, 1, srv.Calls("Login"))
}

func TestHandleCollect_Formats(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	rec := get(t, s, CollectPath+"?target="+target+"&query=about&format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "kind: Inventory")

	rec = get(t, s, CollectPath+"?target="+target+"&query=about&format=table")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "FIELD")
}

func TestHandleCollect_Rejections(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	tests := []struct {
		name   string
		url    string
		status int
		code   errors.ErrorCode
	}{
		{"no target", CollectPath, http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"blank target", CollectPath + "?target=%20", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"unlisted target", CollectPath + "?target=vc9.example.com", http.StatusForbidden, errors.ErrCodeForbidden},
		{"bad query", CollectPath + "?target=" + target + "&query=vms", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"bad format", CollectPath + "?target=" + target + "&format=xml", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"duplicate target", CollectPath + "?target=" + target + "&target=" + target, http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"unknown path", "/v2/collect", http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.url)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHandleCollect_MethodNotAllowed(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, CollectPath+"?target="+target, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestHandleCollect_LoginRejected(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, "wrong", target)

	rec := get(t, s, CollectPath+"?target="+target+"&query=hosts")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, errors.ErrCodeAuthentication, resp.Code)
	assert.False(t, resp.Retryable)
}

func TestHandleCollect_UnreachableTarget(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	target := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := newTestServer(t, vspheretest.Password, target)

	rec := get(t, s, CollectPath+"?target="+target+"&query=about")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, errors.ErrCodeConnection, resp.Code)
	assert.True(t, resp.Retryable)
}

func TestHealthAndReady(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = get(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.SetReady(false)
	rec = get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRootAndMetrics(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	var root rootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, "vsphere-status", root.Service)
	assert.Contains(t, root.Routes, CollectPath)
	assert.Contains(t, root.Queries, "hostlist")
	assert.Equal(t, []string{target}, root.Targets)

	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vsphere_status_http_requests_total")
}

func TestServe_GracefulShutdown(t *testing.T) {
	_, target := fakeVCenter(t)
	s := newTestServer(t, vspheretest.Password, target)
	s.SetReady(false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/ready"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.isReady())
}
