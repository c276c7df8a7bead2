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
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
)

// CollectPath is the on-demand collection endpoint.
const CollectPath = "/v1/collect"

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// health and metrics bypass rate limiting
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc(CollectPath, s.withMiddleware(s.handleCollect))
	mux.HandleFunc("/", s.withMiddleware(s.handleDefault))

	return mux
}

// rootResponse describes the service at /.
type rootResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Routes    []string `json:"routes"`
	Queries   []string `json:"queries"`
	Formats   []string `json:"formats"`
	Targets   []string `json:"targets"`
	APIVendor string   `json:"apiVendor"`
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r, http.StatusNotFound, errors.ErrCodeNotFound, "Not found", false,
			map[string]any{"path": r.URL.Path})
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, rootResponse{
		Service:   s.config.Name,
		Version:   s.config.Version,
		Routes:    []string{CollectPath, "/health", "/ready", "/metrics"},
		Queries:   collector.SupportedQuerySets(),
		Formats:   serializer.SupportedFormats(),
		Targets:   s.config.Targets,
		APIVendor: vendorMediaPrefix + DefaultAPIVersion + "+json",
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	WriteError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{"method": r.Method})
}
