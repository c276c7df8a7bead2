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

package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
)

// Wire constants of the vSphere SDK endpoint.
const (
	EndpointPath = "/sdk"
	ContentType  = `text/xml; charset="utf-8"`
	SOAPAction   = "urn:vim25/5.0"
	UserAgent    = "VMware VI Client/5.0.0"
)

// TransportConfig configures the connection to one target.
type TransportConfig struct {
	Host string
	Port int

	// Timeout bounds connect and every round trip. Zero means defaults.TargetTimeout.
	Timeout time.Duration

	// VerifyCertificate enables server certificate validation. Disabled by
	// default: any certificate is accepted.
	VerifyCertificate bool

	// RootCAs overrides the system pool when VerifyCertificate is set.
	RootCAs *x509.CertPool
}

// Reply is one raw HTTP reply.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport owns the single keep-alive TLS connection to a target. It
// knows nothing about the payload it carries.
type Transport struct {
	endpoint string
	client   *http.Client
	rt       *http.Transport

	mu     sync.Mutex
	closed bool
}

// NewTransport builds a transport for cfg. No connection is made until the
// first round trip.
func NewTransport(cfg TransportConfig) *Transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaults.TargetTimeout
	}
	port := cfg.Port
	if port <= 0 {
		port = defaults.TargetPort
	}

	handshake := defaults.TargetTLSHandshakeTimeout
	if handshake > timeout {
		handshake = timeout
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: defaults.TargetKeepAlive,
	}

	tlsCfg := &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if cfg.VerifyCertificate {
		tlsCfg.RootCAs = cfg.RootCAs
	} else {
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // opt-in validation, see --cert-check
	}

	rt := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   handshake,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       defaults.TargetIdleConnTimeout,
		MaxConnsPerHost:       1,
		MaxIdleConnsPerHost:   1,
		ForceAttemptHTTP2:     false,
	}

	return &Transport{
		endpoint: "https://" + net.JoinHostPort(cfg.Host, strconv.Itoa(port)) + EndpointPath,
		client:   &http.Client{Transport: rt, Timeout: timeout},
		rt:       rt,
	}
}

// Endpoint returns the full SDK URL.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// RoundTrip POSTs an already enveloped payload and reads the full reply.
// cookie is sent verbatim in the Cookie header when non-empty. A non-2xx
// status is logged but not an error: faults are detected from the body.
func (t *Transport) RoundTrip(ctx context.Context, payload []byte, cookie string) (*Reply, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, errors.New(errors.ErrCodeConnection, "transport is closed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to build request", err)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("SOAPAction", SOAPAction)
	req.Header.Set("User-Agent", UserAgent)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConnection, "request failed", err,
			map[string]any{"endpoint": t.endpoint})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConnection, "failed to read reply", err,
			map[string]any{"endpoint": t.endpoint})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("non-success HTTP status from target",
			"endpoint", t.endpoint,
			"status", resp.StatusCode)
	}

	return &Reply{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// Close drops the connection. Safe to call repeatedly.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.rt.CloseIdleConnections()
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// SessionCookie extracts the session credential from the Set-Cookie
// headers of a login reply: the first name=value pair, attributes dropped.
func SessionCookie(h http.Header) string {
	for _, v := range h.Values("Set-Cookie") {
		pair, _, _ := strings.Cut(v, ";")
		if pair = strings.TrimSpace(pair); pair != "" {
			return pair
		}
	}
	return ""
}
