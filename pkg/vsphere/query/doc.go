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

// Package query holds the SOAP request bodies the collector sends to a
// vSphere SDK endpoint.
//
// Each Template is a body fragment with named placeholders filled from the
// session's service metadata and per-call parameters. Every value is
// XML-escaped on render. The inventory templates (HostList, HostDetail,
// Datastores) share one traversal specification that walks the folder,
// datacenter, compute resource, resource pool and host graph so that every
// object is reached regardless of nesting depth.
//
//	body, err := query.HostList.Render(map[string]string{
//	    query.ParamPropertyCollector: "propertyCollector",
//	    query.ParamRootFolder:        "group-d1",
//	})
package query
