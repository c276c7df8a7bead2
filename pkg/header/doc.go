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

// Package header provides the Kubernetes-style header embedded in every
// vsphere-status report.
//
// A Header carries Kind, APIVersion and a flat metadata map (timestamp,
// tool version, run id, query set):
//
//	var h header.Header
//	h.Init(header.KindInventory, "vsphere-status/v1", "v0.3.0",
//	    header.WithMetadata(header.MetadataRunID, runID))
//
// Serialized as JSON:
//
//	{
//	  "kind": "Inventory",
//	  "apiVersion": "vsphere-status/v1",
//	  "metadata": {
//	    "run-id": "5b0f3c0e-6f55-4c2b-9a51-2f8d0a4c1e77",
//	    "timestamp": "2026-01-12T10:30:00Z",
//	    "version": "v0.3.0"
//	  }
//	}
package header
