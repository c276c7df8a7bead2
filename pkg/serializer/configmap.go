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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/header"
	"github.com/zbx-vsphere/vsphere-status/pkg/k8s/client"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"
)

const (
	// ConfigMapURIScheme selects the ConfigMap destination: cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	// FieldManager identifies vsphere-status in server-side apply.
	FieldManager = "vsphere-status"

	configMapDataPrefix = "inventory"
)

// ConfigMapWriter writes a serialized report into a Kubernetes ConfigMap
// using server-side apply, so it is created or replaced in one call.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    client.Interface
}

// ConfigMapOption configures a ConfigMapWriter.
type ConfigMapOption func(*ConfigMapWriter)

// WithClient sets the Kubernetes client instead of the shared one built
// from the kubeconfig.
func WithClient(c client.Interface) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.client = c
	}
}

// NewConfigMapWriter creates a ConfigMapWriter for namespace/name.
func NewConfigMapWriter(namespace, name string, format Format, opts ...ConfigMapOption) *ConfigMapWriter {
	w := &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    normalize(format),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Serialize applies a ConfigMap with:
//   - data.inventory.{json|yaml|txt}: the rendered report
//   - data.format: the format used
//   - data.timestamp: the report timestamp, or now
func (w *ConfigMapWriter) Serialize(ctx context.Context, report any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	kc := w.client
	if kc == nil {
		var err error
		if kc, _, err = client.GetKubeClient(); err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}

	content, err := Marshal(w.format, report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	kind, version, timestamp := reportLabels(report)

	cm := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      "vsphere-status",
			"app.kubernetes.io/component": strings.ToLower(kind),
			"app.kubernetes.io/version":   version,
		}).
		WithData(map[string]string{
			configMapDataPrefix + "." + w.format.Extension(): string(content),
			"format":    string(w.format),
			"timestamp": timestamp,
		})

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"format", w.format)

	_, err = kc.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, cm, metav1.ApplyOptions{
		FieldManager: FieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op; there is nothing to release.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// reportLabels reads kind, version and timestamp from a report header.
func reportLabels(report any) (kind, version, timestamp string) {
	kind = header.KindInventory.String()
	version = "unknown"
	timestamp = time.Now().UTC().Format(time.RFC3339)

	h, ok := report.(interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	})
	if !ok {
		return kind, version, timestamp
	}
	if k := h.GetKind(); k != "" {
		kind = k.String()
	}
	md := h.GetMetadata()
	if v := md[header.MetadataVersion]; v != "" {
		version = v
	}
	if ts := md[header.MetadataTimestamp]; ts != "" {
		timestamp = ts
	}
	return kind, version, timestamp
}

// parseConfigMapURI splits cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	ns, n, ok := strings.Cut(strings.TrimPrefix(uri, ConfigMapURIScheme), "/")
	if !ok {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(ns)
	name = strings.TrimSpace(n)
	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}
