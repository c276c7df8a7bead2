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

// Package serializer renders collection reports as JSON, YAML or a flat
// FIELD/VALUE table and writes them to stdout, a file, or a Kubernetes
// ConfigMap.
//
// # Destinations
//
// NewFileWriterOrStdout picks the destination from the output location:
//
//	""  or "-"            stdout
//	cm://namespace/name   ConfigMap, applied server-side
//	anything else         file, created with mode 0640
//
// Writers that hold a file must be closed:
//
//	w, err := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	if err != nil {
//	    return err
//	}
//	if c, ok := w.(serializer.Closer); ok {
//	    defer c.Close()
//	}
//	return w.Serialize(ctx, report)
//
// # Table Format
//
// The table format flattens nested values into dotted keys built from the
// JSON field names, sorted:
//
//	FIELD                                   VALUE
//	-----                                   -----
//	targets.[0].system.apiVersion           8
//	targets.[0].system.name                 VMware vCenter Server
//
// # ConfigMap Destination
//
// The ConfigMap carries the rendered report under inventory.<ext> together
// with the format and the report timestamp. Kind and version labels are
// read from the report header when it has one.
package serializer
