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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SOAP request metrics
	soapRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_soap_requests_total",
			Help: "Total number of SOAP requests sent to vSphere targets",
		},
		[]string{"operation", "status"}, // ok, fault or error
	)

	soapRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsphere_soap_request_duration_seconds",
			Help:    "SOAP round trip latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	continuationPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsphere_soap_continuation_pages_total",
			Help: "Total number of continuation pages fetched",
		},
	)

	// Session metrics
	sessionLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_session_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // success, rejected or error
	)

	sessionCookieReuseTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsphere_session_cookie_reuse_total",
			Help: "Total number of sessions resumed from a persisted cookie",
		},
	)

	sessionReauthTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsphere_session_reauth_total",
			Help: "Total number of re-authentications after session expiry",
		},
	)
)
