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

// Package soap carries vSphere SDK requests over HTTPS and decodes the
// SOAP replies.
//
// Transport owns one keep-alive TLS connection per target and is payload
// agnostic. Wrap places a request fragment in the fixed envelope; Parse
// reads a reply structurally and exposes the response element, any Fault,
// the continuation token and the property collector <objects>.
//
//	tr := soap.NewTransport(soap.TransportConfig{Host: "vcenter.example.com"})
//	defer tr.Close()
//
//	reply, err := tr.RoundTrip(ctx, soap.Wrap(body), cookie)
//	if err != nil {
//	    return err
//	}
//	env, err := soap.Parse(reply.Body)
package soap
