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

// Package inventory runs the typed vSphere inventory queries through a
// session and returns plain records.
//
// Every operation either returns the complete result of its query or an
// error with no records: a failed query never yields a partially filled
// collection.
//
//	hosts, err := inventory.HostDetails(ctx, s)
//	licenses, err := inventory.Licenses(ctx, s)
//	stores, err := inventory.Datastores(ctx, s)
package inventory
