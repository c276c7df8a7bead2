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
	"crypto/x509"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/time/rate"

	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/query"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
)

// Fault markers that drive the authentication policy.
const (
	// MarkerNotAuthenticated in a faultstring means the cookie expired and
	// one re-login may recover the session.
	MarkerNotAuthenticated = "The session is not authenticated"

	// FaultNotAuthenticated in the fault detail, without the string marker,
	// means the session cannot be recovered.
	FaultNotAuthenticated = "NotAuthenticatedFault"

	// FaultInvalidLogin marks rejected credentials in a login reply.
	FaultInvalidLogin = "InvalidLogin"
)

// MinimumAPIVersion is the API level of the urn:vim25/5.0 request
// namespace. Older targets are queried anyway, with a warning.
const MinimumAPIVersion = 5.0

// PageMode selects what Query hands back from a paginated result. All
// pages are fetched in either mode.
type PageMode string

const (
	// PagesFirst returns the first page only.
	PagesFirst PageMode = "first"
	// PagesAll returns every page.
	PagesAll PageMode = "all"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the connection and authentication settings for one target.
type Config struct {
	Host     string
	Port     int
	Timeout  time.Duration
	Username string
	Password string

	// VerifyCertificate turns on server certificate validation.
	VerifyCertificate bool

	// CookieDir is the base directory of persisted session cookies.
	// Empty disables persistence.
	CookieDir string

	// Pages selects which pages of a paginated reply Query returns.
	Pages PageMode

	// AuthRetries bounds the re-logins per query after a recoverable
	// session expiry.
	AuthRetries int

	// RequestsPerSecond paces requests to the target. Zero is unlimited.
	RequestsPerSecond float64
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "target host is required")
	}
	if c.Port == 0 {
		c.Port = defaults.TargetPort
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid target port",
			map[string]any{"port": c.Port})
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.TargetTimeout
	}
	switch c.Pages {
	case "":
		c.Pages = PagesFirst
	case PagesFirst, PagesAll:
	default:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid page mode",
			map[string]any{"pages": c.Pages})
	}
	if c.AuthRetries < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "auth retries cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "requests per second cannot be negative")
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithCookieStore overrides the store built from Config.CookieDir.
func WithCookieStore(store *CookieStore) Option {
	return func(s *Session) {
		s.cookies = store
	}
}

// WithRootCAs sets the pool used when certificate validation is enabled.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(s *Session) {
		s.rootCAs = pool
	}
}

// WithLimiter overrides the limiter built from Config.RequestsPerSecond.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Session) {
		s.limiter = l
	}
}

// Session is the protocol conversation with one target. It is not safe for
// concurrent use; run one Session per target.
type Session struct {
	cfg       Config
	cookies   *CookieStore
	limiter   *rate.Limiter
	rootCAs   *x509.CertPool
	transport *soap.Transport

	state  State
	cookie string
	meta   ServiceMetadata
}

// Response is the outcome of a Query.
type Response struct {
	// Pages holds the parsed pages handed to the caller, per Config.Pages.
	Pages []*soap.Envelope

	// PageCount is the number of pages fetched from the target.
	PageCount int
}

// Objects returns the property collector <objects> of every returned page.
func (r *Response) Objects() []*etree.Element {
	var out []*etree.Element
	for _, p := range r.Pages {
		out = append(out, p.Objects()...)
	}
	return out
}

// New validates cfg and returns a disconnected Session.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		cookies: NewCookieStore(cfg.CookieDir),
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Host returns the target host name.
func (s *Session) Host() string {
	return s.cfg.Host
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Metadata returns the service metadata loaded by Open.
func (s *Session) Metadata() ServiceMetadata {
	return s.meta
}

// Open connects to the target and loads the service metadata. On failure
// the transport is closed before the error is returned.
func (s *Session) Open(ctx context.Context) error {
	if s.state != StateDisconnected {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "session already opened",
			map[string]any{"state": s.state.String()})
	}

	s.transport = soap.NewTransport(soap.TransportConfig{
		Host:              s.cfg.Host,
		Port:              s.cfg.Port,
		Timeout:           s.cfg.Timeout,
		VerifyCertificate: s.cfg.VerifyCertificate,
		RootCAs:           s.rootCAs,
	})

	slog.Debug("opening session", slog.String("endpoint", s.transport.Endpoint()))

	env, _, err := s.exchange(ctx, query.SystemInfo, nil)
	if err != nil {
		return s.fail(err)
	}
	if f := env.Fault(); f != nil {
		return s.fail(errors.Wrap(errors.ErrCodeProtocol, "service content request failed", f))
	}

	meta, err := ParseServiceMetadata(env)
	if err != nil {
		return s.fail(err)
	}

	s.meta = meta
	s.state = StateConnected

	if meta.APIVersion > 0 && meta.APIVersion < MinimumAPIVersion {
		slog.Warn("target API version is older than the request namespace",
			slog.String("host", s.cfg.Host),
			slog.Float64("apiVersion", meta.APIVersion),
			slog.Float64("minimum", MinimumAPIVersion))
	}

	slog.Debug("session connected",
		slog.String("host", s.cfg.Host),
		slog.String("product", meta.FullName),
		slog.Float64("apiVersion", meta.APIVersion))
	return nil
}

// Authenticate resumes the persisted session for this host when a cookie
// file exists, without a network round trip. Otherwise it logs in and
// persists the new cookie.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.state != StateConnected && s.state != StateAuthenticated {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "session is not connected",
			map[string]any{"state": s.state.String()})
	}

	cookie, ok, err := s.cookies.Load(s.cfg.Host)
	if err != nil {
		return s.fail(err)
	}
	if ok {
		s.cookie = cookie
		s.state = StateAuthenticated
		sessionCookieReuseTotal.Inc()
		slog.Debug("resumed session from cookie", slog.String("host", s.cfg.Host))
		return nil
	}

	if err := s.login(ctx); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Session) login(ctx context.Context) error {
	params := s.meta.Params()
	params[query.ParamUsername] = s.cfg.Username
	params[query.ParamPassword] = s.cfg.Password

	s.cookie = ""
	env, reply, err := s.exchange(ctx, query.Login, params)
	if err != nil {
		sessionLoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	if f := env.Fault(); f != nil {
		if f.HasDetail(FaultInvalidLogin+"Fault") || f.Mentions(FaultInvalidLogin) {
			sessionLoginsTotal.WithLabelValues("rejected").Inc()
			return errors.WrapWithContext(errors.ErrCodeAuthentication, "login rejected", f,
				map[string]any{"host": s.cfg.Host, "user": s.cfg.Username})
		}
		sessionLoginsTotal.WithLabelValues("error").Inc()
		return errors.Wrap(errors.ErrCodeProtocol, "login failed", f)
	}

	cookie := soap.SessionCookie(reply.Header)
	if cookie == "" {
		sessionLoginsTotal.WithLabelValues("error").Inc()
		return errors.NewWithContext(errors.ErrCodeProtocol, "login reply carried no session cookie",
			map[string]any{"host": s.cfg.Host})
	}

	if err := s.cookies.Save(s.cfg.Host, cookie); err != nil {
		sessionLoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	s.cookie = cookie
	s.state = StateAuthenticated
	sessionLoginsTotal.WithLabelValues("success").Inc()
	slog.Debug("logged in", slog.String("host", s.cfg.Host), slog.String("user", s.cfg.Username))
	return nil
}

// Query renders tmpl with params merged over the service metadata, sends it
// and drains every continuation page. A recoverable session expiry triggers
// a re-login and a retry of the same request, up to Config.AuthRetries
// times. Any error closes the session.
func (s *Session) Query(ctx context.Context, tmpl *query.Template, params map[string]string) (*Response, error) {
	if s.state != StateConnected && s.state != StateAuthenticated {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "session is not connected",
			map[string]any{"state": s.state.String(), "operation": tmpl.Operation})
	}

	merged := s.meta.Params()
	maps.Copy(merged, params)

	env, err := s.request(ctx, tmpl, merged)
	if err != nil {
		return nil, s.fail(err)
	}

	resp := &Response{Pages: []*soap.Envelope{env}, PageCount: 1}

	for token := env.Token(); token != ""; token = env.Token() {
		next := maps.Clone(merged)
		next[query.ParamToken] = token

		env, err = s.request(ctx, query.Continue, next)
		if err != nil {
			return nil, s.fail(err)
		}

		resp.PageCount++
		continuationPagesTotal.Inc()
		if s.cfg.Pages == PagesAll {
			resp.Pages = append(resp.Pages, env)
		}
	}

	slog.Debug("query complete",
		slog.String("host", s.cfg.Host),
		slog.String("operation", tmpl.Operation),
		slog.Int("pages", resp.PageCount))
	return resp, nil
}

// request sends one logical request, applying the authentication policy to
// any fault in the reply.
func (s *Session) request(ctx context.Context, tmpl *query.Template, params map[string]string) (*soap.Envelope, error) {
	for attempt := 0; ; attempt++ {
		env, _, err := s.exchange(ctx, tmpl, params)
		if err != nil {
			return nil, err
		}

		f := env.Fault()
		if f == nil {
			return env, nil
		}

		notAuthenticated := strings.Contains(f.String, MarkerNotAuthenticated) || f.HasDetail(FaultNotAuthenticated)
		if notAuthenticated && s.state != StateAuthenticated {
			// re-login only recovers a session that was authenticated before
			return nil, errors.WrapWithContext(errors.ErrCodeAuthentication, "authentication required", f,
				map[string]any{"host": s.cfg.Host, "operation": tmpl.Operation, "state": s.state.String()})
		}

		switch {
		case strings.Contains(f.String, MarkerNotAuthenticated):
			s.invalidate()
			if attempt >= s.cfg.AuthRetries {
				return nil, errors.WrapWithContext(errors.ErrCodeSessionExpired, "session expired after re-authentication", f,
					map[string]any{"host": s.cfg.Host, "operation": tmpl.Operation, "attempts": attempt + 1})
			}
			slog.Debug("session not authenticated, logging in again",
				slog.String("host", s.cfg.Host),
				slog.String("operation", tmpl.Operation))
			sessionReauthTotal.Inc()
			if err := s.login(ctx); err != nil {
				return nil, err
			}
		case f.HasDetail(FaultNotAuthenticated):
			s.invalidate()
			return nil, errors.WrapWithContext(errors.ErrCodeSessionExpired, "session expired", f,
				map[string]any{"host": s.cfg.Host, "operation": tmpl.Operation})
		default:
			return nil, errors.WrapWithContext(errors.ErrCodeProtocol, "request failed", f,
				map[string]any{"host": s.cfg.Host, "operation": tmpl.Operation})
		}
	}
}

// exchange renders, sends and parses a single request.
func (s *Session) exchange(ctx context.Context, tmpl *query.Template, params map[string]string) (*soap.Envelope, *soap.Reply, error) {
	body, err := tmpl.Render(params)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to render request", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeConnection, "request pacing interrupted", err)
		}
	}

	start := time.Now()
	reply, err := s.transport.RoundTrip(ctx, soap.Wrap(body), s.cookie)
	soapRequestDuration.WithLabelValues(tmpl.Operation).Observe(time.Since(start).Seconds())
	if err != nil {
		soapRequestsTotal.WithLabelValues(tmpl.Operation, "error").Inc()
		return nil, nil, err
	}

	env, err := soap.Parse(reply.Body)
	if err != nil {
		soapRequestsTotal.WithLabelValues(tmpl.Operation, "error").Inc()
		return nil, nil, errors.WrapWithContext(errors.ErrCodeProtocol, "unparseable reply", err,
			map[string]any{"operation": tmpl.Operation, "status": reply.Status})
	}

	status := "ok"
	if env.Fault() != nil {
		status = "fault"
	}
	soapRequestsTotal.WithLabelValues(tmpl.Operation, status).Inc()
	return env, reply, nil
}

// invalidate drops the current cookie locally and on disk.
func (s *Session) invalidate() {
	s.cookie = ""
	if s.state == StateAuthenticated {
		s.state = StateConnected
	}
	if err := s.cookies.Remove(s.cfg.Host); err != nil {
		slog.Warn("failed to remove session cookie", slog.String("error", err.Error()))
	}
}

// fail closes the session and returns err.
func (s *Session) fail(err error) error {
	s.Close()
	return err
}

// Logout ends the session on the target and removes the cookie file. It is
// best effort: failures are logged and swallowed.
func (s *Session) Logout(ctx context.Context) {
	if s.transport != nil && !s.transport.Closed() && s.cookie != "" {
		ctx, cancel := context.WithTimeout(ctx, defaults.SessionLogoutTimeout)
		env, _, err := s.exchange(ctx, query.Logout, s.meta.Params())
		cancel()
		switch {
		case err != nil:
			slog.Debug("logout failed", slog.String("host", s.cfg.Host), slog.String("error", err.Error()))
		case env.Fault() != nil:
			slog.Debug("logout rejected", slog.String("host", s.cfg.Host), slog.String("error", env.Fault().Error()))
		}
	}

	if err := s.cookies.Remove(s.cfg.Host); err != nil {
		slog.Debug("failed to remove session cookie", slog.String("error", err.Error()))
	}

	s.cookie = ""
	if s.state == StateAuthenticated {
		s.state = StateConnected
	}
}

// Close tears down the transport. Safe to call repeatedly.
func (s *Session) Close() {
	if s.transport != nil {
		s.transport.Close()
	}
	s.state = StateClosed
}
