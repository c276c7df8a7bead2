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

// Package client provides the shared Kubernetes client used to publish
// reports into ConfigMaps.
//
// The client is built once, on first use, from the kubeconfig selected with
// SetKubeconfig, $KUBECONFIG, ~/.kube/config, or the in-cluster service
// account, in that order:
//
//	client.SetKubeconfig(path)
//	kc, _, err := client.GetKubeClient()
//
// Tests inject k8s.io/client-go/kubernetes/fake clients through the
// consumer instead of touching this package.
package client
