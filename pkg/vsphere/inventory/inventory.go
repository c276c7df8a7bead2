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

package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/decoder"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/query"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/session"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/soap"
)

// Querier issues a rendered query and returns the drained reply.
// *session.Session implements it.
type Querier interface {
	Query(ctx context.Context, tmpl *query.Template, params map[string]string) (*session.Response, error)
}

// Host is one entry of the host list.
type Host struct {
	Name string         `json:"name" yaml:"name"`
	Ref  soap.ObjectRef `json:"ref" yaml:"ref"`
}

// License is one license in use.
type License struct {
	Name       string `json:"name" yaml:"name"`
	Used       string `json:"used" yaml:"used"`
	Total      string `json:"total" yaml:"total"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	EditionKey string `json:"editionKey,omitempty" yaml:"editionKey,omitempty"`
	CostUnit   string `json:"costUnit,omitempty" yaml:"costUnit,omitempty"`
}

// Datastore holds the summary fields of one datastore, without the
// "summary." prefix.
type Datastore struct {
	Ref    soap.ObjectRef    `json:"ref" yaml:"ref"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// DatastoreSet maps a datastore reference value to its record.
type DatastoreSet map[string]*Datastore

// HostList returns every host in the inventory, sorted by name.
func HostList(ctx context.Context, q Querier) ([]Host, error) {
	resp, err := q.Query(ctx, query.HostList, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}

	hosts := make([]Host, 0)
	for _, obj := range resp.Objects() {
		h := Host{Ref: soap.RefOf(obj.SelectElement("obj"))}
		for _, ps := range obj.SelectElements("propSet") {
			if text(ps, "name") == "name" {
				h.Name = text(ps, "val")
			}
		}
		if h.Name == "" {
			h.Name = h.Ref.Value
		}
		hosts = append(hosts, h)
	}

	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Name < hosts[j].Name
	})
	return hosts, nil
}

// HostDetails returns the decoded detail record of every host, keyed by
// display name.
func HostDetails(ctx context.Context, q Querier) (decoder.Hosts, error) {
	resp, err := q.Query(ctx, query.HostDetail, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query host details: %w", err)
	}

	hosts := decoder.Hosts{}
	decoder.New().Decode(resp.Objects(), hosts)
	return hosts, nil
}

// Licenses returns the licenses of the license manager. Licenses with a
// total of "0" are not in use and are left out.
func Licenses(ctx context.Context, q Querier) ([]License, error) {
	resp, err := q.Query(ctx, query.Licenses, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}

	licenses := make([]License, 0)
	for _, obj := range resp.Objects() {
		for _, ps := range obj.SelectElements("propSet") {
			val := ps.SelectElement("val")
			if text(ps, "name") != "licenses" || val == nil {
				continue
			}
			for _, e := range val.ChildElements() {
				l := License{
					Name:       text(e, "name"),
					Used:       text(e, "used"),
					Total:      text(e, "total"),
					Key:        text(e, "licenseKey"),
					EditionKey: text(e, "editionKey"),
					CostUnit:   text(e, "costUnit"),
				}
				if l.Total == "0" {
					continue
				}
				licenses = append(licenses, l)
			}
		}
	}
	return licenses, nil
}

// Datastores returns every datastore in the inventory.
func Datastores(ctx context.Context, q Querier) (DatastoreSet, error) {
	resp, err := q.Query(ctx, query.Datastores, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query datastores: %w", err)
	}

	stores := DatastoreSet{}
	for _, obj := range resp.Objects() {
		ds := &Datastore{
			Ref:    soap.RefOf(obj.SelectElement("obj")),
			Fields: make(map[string]string),
		}
		for _, ps := range obj.SelectElements("propSet") {
			val := ps.SelectElement("val")
			if val == nil {
				continue
			}
			ds.Fields[strings.TrimPrefix(text(ps, "name"), "summary.")] = soap.InnerXML(val)
		}
		stores[ds.Ref.Value] = ds
	}
	return stores, nil
}

func text(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
