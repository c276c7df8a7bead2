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

// Package cli implements the vsphere-status command line.
//
// # Commands
//
// collect - query one or more vSphere targets:
//
//	vsphere-status collect -t vcenter.example.com -u monitor@vsphere.local -s SECRET [-q all|about|hosts|hostlist|licenses|datastores]
//
// serve - answer GET /v1/collect over HTTP for the listed targets:
//
//	vsphere-status serve -t vc01.example.com --targets-file /etc/vsphere-status/targets -u monitor@vsphere.local
//
// queries - list the supported query sets.
//
// # Output
//
// The report goes to stdout by default. --output takes a file path or a
// cm://namespace/name ConfigMap reference; --format selects json, yaml or
// table. Nothing is written when any target fails.
//
// # Environment Variables
//
//	VSPHERE_TARGET        comma separated targets
//	VSPHERE_TARGETS_FILE  file with one target per line
//	PORT                  serve listen port
//	VSPHERE_PORT          default port
//	VSPHERE_USER          login user name
//	VSPHERE_SECRET        login password
//	VSPHERE_COOKIE_DIR    session cookie directory
//	LOG_LEVEL             debug, info, warn or error
//
// # Exit Codes
//
//	0  Success
//	1  Invalid arguments or collection failure
//	2  Interrupted or timed out
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/zbx-vsphere/vsphere-status/pkg/cli.version=1.0.0'"
package cli
