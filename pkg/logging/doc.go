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

// Package logging configures log/slog for vsphere-status.
//
// Logs are JSON on stderr and carry the module and version of the binary.
// Debug level adds the source location. Levels are parsed case-insensitively
// from debug, info, warn (or warning) and error; anything else means info.
//
// The CLI installs the default logger once flags are parsed:
//
//	logging.SetDefaultStructuredLoggerWithLevel("vsphere-status", version, cmd.String("log-level"))
//
// SetDefaultStructuredLogger reads the level from LOG_LEVEL instead.
// NewLogLogger bridges to *log.Logger for net/http.Server.ErrorLog.
//
// Packages log through the slog default with flat key/value attributes:
//
//	slog.Warn("session expired, re-authenticating",
//	    "host", host,
//	    "operation", "RetrievePropertiesEx",
//	    "attempt", attempt)
//
// Passwords and session cookies are never logged.
package logging
