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

package defaults

import "time"

// Target connection defaults.
const (
	// TargetPort is the default HTTPS port of the vSphere SDK endpoint.
	TargetPort = 443

	// TargetTimeout bounds every blocking network operation against a target:
	// connect, TLS handshake and each request/response round trip.
	TargetTimeout = 60 * time.Second

	// TargetTLSHandshakeTimeout is the TLS handshake limit. It never exceeds
	// TargetTimeout.
	TargetTLSHandshakeTimeout = 10 * time.Second

	// TargetIdleConnTimeout keeps the single target connection alive between
	// queries of one collection run.
	TargetIdleConnTimeout = 90 * time.Second

	// TargetKeepAlive is the TCP keep-alive period of the target connection.
	TargetKeepAlive = 30 * time.Second
)

// Session defaults.
const (
	// SessionAuthRetries is how many times a recoverable "not authenticated"
	// fault triggers a re-login and retry of the same query.
	SessionAuthRetries = 1

	// SessionLogoutTimeout bounds the best-effort logout on exit.
	SessionLogoutTimeout = 10 * time.Second
)

// Collector timeouts for data collection operations.
const (
	// CollectorTimeout is the default overall timeout for one collection run
	// across all targets.
	CollectorTimeout = 5 * time.Minute
)

// Output timeouts.
const (
	// ConfigMapWriteTimeout is the timeout for writing to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second
)

// Server timeouts for the HTTP status endpoint.
const (
	// ServerReadTimeout is the maximum duration for reading a request.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerCollectTimeout bounds one /v1/collect request.
	ServerCollectTimeout = 2 * time.Minute

	// ServerWriteTimeout leaves room to write the report after the
	// collection deadline.
	ServerWriteTimeout = ServerCollectTimeout + 15*time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)
