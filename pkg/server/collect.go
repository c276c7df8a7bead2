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
	"log/slog"
	"net/http"
	"strings"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
)

// handleCollect handles GET /v1/collect?target=h[&target=h2][&query=q][&format=f]
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}

	params := r.URL.Query()

	var targets []string
	for _, t := range params["target"] {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"at least one target parameter is required", false, nil)
		return
	}
	for i, t := range targets {
		canonical, ok := s.allowed[strings.ToLower(t)]
		if !ok {
			WriteError(w, r, http.StatusForbidden, errors.ErrCodeForbidden,
				"target is not served by this instance", false, map[string]any{"target": t})
			return
		}
		targets[i] = canonical
	}

	query := s.config.DefaultQuery
	if v := params.Get("query"); v != "" {
		q, err := collector.ParseQuerySet(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest, err.Error(), false,
				map[string]any{"supported": collector.SupportedQuerySets()})
			return
		}
		query = q
	}

	format := serializer.FormatJSON
	if v := params.Get("format"); v != "" {
		format = serializer.Format(strings.ToLower(v))
		if format.IsUnknown() {
			WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest, "unsupported format", false,
				map[string]any{"format": v, "supported": serializer.SupportedFormats()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.CollectTimeout)
	defer cancel()

	c := s.collector
	c.Query = query

	report, err := c.Run(ctx, targets)
	if err != nil {
		slog.Warn("on-demand collection failed",
			"requestID", r.Context().Value(contextKeyRequestID),
			"targets", targets,
			"error", err)
		WriteErrorFromErr(w, r, err, "collection failed", map[string]any{"targets": targets})
		return
	}

	serializer.Respond(w, http.StatusOK, format, report)
}
