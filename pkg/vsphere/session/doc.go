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

// Package session runs the stateful SOAP conversation with one vSphere
// target.
//
// A Session moves through Disconnected, Connected (service metadata
// loaded), Authenticated and Closed. Open dials the target and loads
// ServiceMetadata, whose handles parameterize every later query.
// Authenticate resumes a persisted cookie without a round trip when one
// exists and logs in otherwise. Query renders a template, follows
// continuation tokens until the result is drained and applies the
// authentication policy:
//
//   - a faultstring containing "The session is not authenticated" drops the
//     cookie, logs in again and retries the request, at most
//     Config.AuthRetries times
//   - a NotAuthenticatedFault detail without that string fails at once
//     with SESSION_EXPIRED
//   - any other fault fails with PROTOCOL
//
// Every failure closes the transport. Close is idempotent.
//
// Usage:
//
//	s, err := session.New(session.Config{
//	    Host:      "vcenter.example.com",
//	    Username:  "monitor@vsphere.local",
//	    Password:  secret,
//	    CookieDir: dir,
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Open(ctx); err != nil {
//	    return err
//	}
//	if err := s.Authenticate(ctx); err != nil {
//	    return err
//	}
//	resp, err := s.Query(ctx, query.HostDetail, nil)
//
// Sessions are not safe for concurrent use and share no state; collect
// from several targets with one Session each.
package session
