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

// Package server exposes vSphere collection over HTTP for scrapers and
// dashboards that cannot run the CLI.
//
// Endpoints:
//
//	GET /v1/collect?target=<host[:port]>[&target=...][&query=<set>][&format=json|yaml|table]
//	GET /health    liveness
//	GET /ready     readiness, 503 until serving and during shutdown
//	GET /metrics   Prometheus metrics
//	GET /          service description
//
// Only targets listed in Config.Targets are collected; anything else is
// refused with 403. Each collect request runs a copy of the configured
// collector, so session cookies persisted by earlier requests are reused.
//
// API handlers share one middleware chain: metrics, API version
// negotiation (Accept: application/vnd.vsphere-status.v1+json), request
// ID, panic recovery, rate limiting and logging. Errors are returned as
// ErrorResponse with a stable code, e.g.
//
//	{"code":"FORBIDDEN","message":"target is not served by this instance",
//	 "details":{"target":"vc9"},"requestId":"...","timestamp":"...","retryable":false}
//
// vSphere failures (connection, protocol, authentication, expired session)
// map to 502 and deadline expiry to 504.
package server
