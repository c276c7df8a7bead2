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

package client

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is the Kubernetes client surface used by the ConfigMap writer.
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	kubeconfig   string
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// SetKubeconfig selects the kubeconfig file used by GetKubeClient. It only
// has an effect before the first GetKubeClient call.
func SetKubeconfig(path string) {
	kubeconfig = path
}

// GetKubeClient returns the process-wide client, building it on first use.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient(kubeconfig)
	})
	if clientErr != nil {
		return nil, nil, clientErr
	}
	return cachedClient, cachedConfig, nil
}

// BuildKubeClient builds a new client. An empty path falls back to
// $KUBECONFIG, then ~/.kube/config, then the in-cluster service account.
func BuildKubeClient(path string) (*kubernetes.Clientset, *rest.Config, error) {
	path = ResolveKubeconfig(path)

	var (
		config *rest.Config
		err    error
	)
	if path == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeConnection, "failed to get in-cluster config", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, nil, errors.WrapWithContext(errors.ErrCodeConnection, "failed to build kube config", err,
				map[string]any{"kubeconfig": path})
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeConnection, "failed to create kubernetes client", err)
	}
	return client, config, nil
}

// ResolveKubeconfig returns the kubeconfig path BuildKubeClient would use,
// empty for in-cluster.
func ResolveKubeconfig(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}
