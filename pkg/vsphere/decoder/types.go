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

package decoder

import (
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
)

// Sensor is one health sensor reading of a host.
type Sensor struct {
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label" yaml:"label"`
	Summary string `json:"summary" yaml:"summary"`
	Key     string `json:"key" yaml:"key"`

	// Set for numeric sensors only.
	CurrentReading string `json:"currentReading,omitempty" yaml:"currentReading,omitempty"`
	UnitModifier   string `json:"unitModifier,omitempty" yaml:"unitModifier,omitempty"`
	BaseUnits      string `json:"baseUnits,omitempty" yaml:"baseUnits,omitempty"`
	SensorType     string `json:"sensorType,omitempty" yaml:"sensorType,omitempty"`

	// Source names the sensor family: numeric, storage, cpu or memory.
	Source string `json:"source" yaml:"source"`
}

// LUNState aggregates the storage paths of one LUN.
type LUNState struct {
	// States counts paths per path state, e.g. "active": 2.
	States map[string]int `json:"states" yaml:"states"`

	// Paths lists the contributing path names in encounter order.
	Paths []string `json:"paths" yaml:"paths"`
}

// HostRecord is the decoded property set of one HostSystem.
type HostRecord struct {
	Ref soap.ObjectRef `json:"ref" yaml:"ref"`

	// Properties maps a property path to its values in encounter order.
	// Paths without a dedicated extractor land here verbatim, as do the
	// synthetic keys of indexed blocks and identifying info.
	Properties map[string][]string `json:"properties" yaml:"properties"`

	Sensors     map[string]Sensor            `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	Multipath   map[string]*LUNState         `json:"multipath,omitempty" yaml:"multipath,omitempty"`
	CPUPackages map[string]map[string]string `json:"cpuPackages,omitempty" yaml:"cpuPackages,omitempty"`
	PCIDevices  map[string]map[string]string `json:"pciDevices,omitempty" yaml:"pciDevices,omitempty"`

	identSeq map[string]int
}

// NewHostRecord returns an empty record for ref.
func NewHostRecord(ref soap.ObjectRef) *HostRecord {
	return &HostRecord{
		Ref:         ref,
		Properties:  make(map[string][]string),
		Sensors:     make(map[string]Sensor),
		Multipath:   make(map[string]*LUNState),
		CPUPackages: make(map[string]map[string]string),
		PCIDevices:  make(map[string]map[string]string),
		identSeq:    make(map[string]int),
	}
}

// Name returns the first value of the name property, or the object
// reference value when the host reported no name.
func (h *HostRecord) Name() string {
	if v := h.Properties["name"]; len(v) > 0 && v[0] != "" {
		return v[0]
	}
	return h.Ref.Value
}

// First returns the first value recorded for path.
func (h *HostRecord) First(path string) string {
	if v := h.Properties[path]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Append adds value to the sequence of path.
func (h *HostRecord) Append(path, value string) {
	h.Properties[path] = append(h.Properties[path], value)
}

// Hosts maps a host display name to its record.
type Hosts map[string]*HostRecord
