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

// Package collector runs vSphere inventory collection against one or more
// targets and assembles the report.
//
// A Collector opens one session.Session per target, loads the service
// metadata, authenticates when the query set needs it and runs the
// selected inventory queries. Targets are collected concurrently with
// errgroup; sessions share no state. A failing target fails the whole run.
//
// Query sets:
//   - all: service metadata, host details, licenses and datastores
//   - about: service metadata only, without login
//   - hosts: host details
//   - hostlist: host names and references
//   - licenses: license usage
//   - datastores: datastore summaries
//
// Usage:
//
//	c := &collector.Collector{
//	    Version: version,
//	    Session: session.Config{Username: user, Password: secret, CookieDir: dir},
//	    Query:   collector.QueryAll,
//	    Logout:  true,
//	}
//	report, err := c.Run(ctx, []string{"vc01.example.com", "esx07.example.com:8443"})
//
// Measure runs the collection and hands the report to a serializer.Serializer.
package collector
