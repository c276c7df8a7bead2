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
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
)

// Property paths with a dedicated extractor.
const (
	PathNumericSensors = "runtime.healthSystemRuntime.systemHealthInfo.numericSensorInfo"
	PathStorageStatus  = "runtime.healthSystemRuntime.hardwareStatusInfo.storageStatusInfo"
	PathCPUStatus      = "runtime.healthSystemRuntime.hardwareStatusInfo.cpuStatusInfo"
	PathMemoryStatus   = "runtime.healthSystemRuntime.hardwareStatusInfo.memoryStatusInfo"
	PathMultipath      = "config.multipathState.path"
	PathCPUPackages    = "hardware.cpuPkg"
	PathPCIDevices     = "hardware.pciDevice"
	PathIdentifying    = "hardware.systemInfo.otherIdentifyingInfo"
)

// Multipath adapter classes.
const (
	LabelPhysical      = "physical"
	LabelLogical       = "logical"
	LabelPseudoLogical = "pseudo-logical"
)

var (
	cpuPackageFields = []string{"index", "vendor", "hz", "busHz", "description"}
	pciDeviceFields  = []string{"id", "classId", "bus", "slot", "function", "vendorId", "subVendorId",
		"vendorName", "deviceId", "subDeviceId", "parentBridge", "deviceName"}
)

// Extractor decodes the <val> element of one property into rec.
type Extractor func(rec *HostRecord, path string, val *etree.Element)

// Decoder turns property collector <objects> into HostRecords by
// dispatching every property path to an Extractor.
type Decoder struct {
	table map[string]Extractor
}

// New returns a Decoder with the host detail extractors registered.
func New() *Decoder {
	return &Decoder{
		table: map[string]Extractor{
			PathNumericSensors: sensors("numeric", true),
			PathStorageStatus:  sensors("storage", false),
			PathCPUStatus:      sensors("cpu", false),
			PathMemoryStatus:   sensors("memory", false),
			PathMultipath:      multipath,
			PathCPUPackages: indexedBlock("index", cpuPackageFields, func(r *HostRecord) map[string]map[string]string {
				return r.CPUPackages
			}),
			PathPCIDevices: indexedBlock("id", pciDeviceFields, func(r *HostRecord) map[string]map[string]string {
				return r.PCIDevices
			}),
			PathIdentifying: identifyingInfo,
		},
	}
}

// Register sets the extractor for an exact property path.
func (d *Decoder) Register(path string, fn Extractor) {
	d.table[path] = fn
}

// extractor resolves path, falling back to verbatim storage.
func (d *Decoder) extractor(path string) Extractor {
	if fn, ok := d.table[path]; ok {
		return fn
	}
	return Verbatim
}

// Decode decodes every object and indexes it into hosts by display name.
// Hosts sharing a name collide: the last one wins.
func (d *Decoder) Decode(objects []*etree.Element, hosts Hosts) {
	for _, obj := range objects {
		rec := d.DecodeObject(obj)
		name := rec.Name()
		if prev, ok := hosts[name]; ok && prev.Ref != rec.Ref {
			slog.Warn("host display name collision, keeping the last record",
				slog.String("name", name),
				slog.String("dropped", prev.Ref.String()),
				slog.String("kept", rec.Ref.String()))
		}
		hosts[name] = rec
	}
}

// DecodeObject decodes a single <objects> element.
func (d *Decoder) DecodeObject(obj *etree.Element) *HostRecord {
	rec := NewHostRecord(soap.RefOf(obj.SelectElement("obj")))
	for _, ps := range obj.SelectElements("propSet") {
		nameEl := ps.SelectElement("name")
		val := ps.SelectElement("val")
		if nameEl == nil || val == nil {
			continue
		}
		path := strings.TrimSpace(nameEl.Text())
		d.extractor(path)(rec, path, val)
	}
	return rec
}

// Verbatim appends the raw value to the sequence of path.
func Verbatim(rec *HostRecord, path string, val *etree.Element) {
	rec.Append(path, soap.InnerXML(val))
}

func childText(el *etree.Element, path string) (string, bool) {
	c := el.FindElement(path)
	if c == nil {
		return "", false
	}
	return c.Text(), true
}

func text(el *etree.Element, path string) string {
	s, _ := childText(el, path)
	return s
}

// sensors decodes HostNumericSensorInfo or HostHardwareElementInfo
// entries keyed by sensor name. A repeated name replaces the earlier entry.
func sensors(source string, numeric bool) Extractor {
	return func(rec *HostRecord, _ string, val *etree.Element) {
		for _, e := range val.ChildElements() {
			state := e.SelectElement("healthState")
			if state == nil {
				state = e.SelectElement("status")
			}

			s := Sensor{
				Name:   text(e, "name"),
				Source: source,
			}
			if state != nil {
				s.Label = text(state, "label")
				s.Summary = text(state, "summary")
				s.Key = text(state, "key")
			}
			if numeric {
				s.CurrentReading = text(e, "currentReading")
				s.UnitModifier = text(e, "unitModifier")
				s.BaseUnits = text(e, "baseUnits")
				s.SensorType = text(e, "sensorType")
			}
			rec.Sensors[s.Name] = s
		}
	}
}

// multipath counts path states per LUN. Path names are colon separated,
// adapter first and LUN last, e.g. "vmhba64:C0:T1:L0".
func multipath(rec *HostRecord, _ string, val *etree.Element) {
	for _, e := range val.ChildElements() {
		name := text(e, "name")
		state := text(e, "pathState")

		tokens := strings.Split(name, ":")
		adapter, lun := tokens[0], tokens[len(tokens)-1]
		key := fmt.Sprintf("%s (%s)", lun, ClassifyAdapter(adapterSuffix(adapter)))

		l, ok := rec.Multipath[key]
		if !ok {
			l = &LUNState{States: make(map[string]int)}
			rec.Multipath[key] = l
		}
		l.States[state]++
		l.Paths = append(l.Paths, name)
	}
}

// adapterSuffix returns the trailing number of an adapter name such as
// "vmhba33", or -1 when there is none.
func adapterSuffix(adapter string) int {
	i := len(adapter)
	for i > 0 && adapter[i-1] >= '0' && adapter[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(adapter[i:])
	if err != nil {
		return -1
	}
	return n
}

// ClassifyAdapter maps an adapter number to its class. Numbers in [32,96)
// are logical; within that range n%64 < 33 is pseudo-logical.
func ClassifyAdapter(n int) string {
	if n >= 32 && n < 96 {
		if n%64 < 33 {
			return LabelPseudoLogical
		}
		return LabelLogical
	}
	return LabelPhysical
}

// indexedBlock stores each listed field of every entry under
// "<path>.<field>.<id>", where id is the value of the idField child, and
// mirrors it into the per-id map returned by sink.
func indexedBlock(idField string, fields []string, sink func(*HostRecord) map[string]map[string]string) Extractor {
	return func(rec *HostRecord, path string, val *etree.Element) {
		for _, e := range val.ChildElements() {
			id, ok := childText(e, idField)
			if !ok {
				continue
			}
			entry := sink(rec)[id]
			if entry == nil {
				entry = make(map[string]string, len(fields))
				sink(rec)[id] = entry
			}
			for _, f := range fields {
				v, ok := childText(e, f)
				if !ok {
					continue
				}
				rec.Properties[path+"."+f+"."+id] = []string{v}
				entry[f] = v
			}
		}
	}
}

// identifyingInfo stores each (identifierType.key, identifierValue) pair as
// "<path>.<key>.<n>", n counting occurrences of key across the host.
func identifyingInfo(rec *HostRecord, path string, val *etree.Element) {
	for _, e := range val.ChildElements() {
		key := text(e, "identifierType/key")
		n := rec.identSeq[key]
		rec.identSeq[key] = n + 1
		rec.Properties[fmt.Sprintf("%s.%s.%d", path, key, n)] = []string{text(e, "identifierValue")}
	}
}
