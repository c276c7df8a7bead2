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

// Package decoder turns the flat property stream of a HostSystem into a
// structured HostRecord.
//
// Every <propSet> is dispatched by its exact property path to an
// Extractor. Sensor, multipath, CPU package, PCI device and identifying
// info paths have dedicated extractors; any other path falls back to
// Verbatim, which appends the raw value to Properties[path] and keeps
// unknown paths usable as the inventory grows.
//
//	hosts := decoder.Hosts{}
//	decoder.New().Decode(resp.Objects(), hosts)
//	for name, h := range hosts {
//	    fmt.Println(name, h.First("hardware.systemInfo.model"))
//	}
package decoder
