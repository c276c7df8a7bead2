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

package query

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
)

// Placeholder names shared with the session's service metadata.
const (
	ParamRootFolder        = "rootFolder"
	ParamPropertyCollector = "propertyCollector"
	ParamSessionManager    = "sessionManager"
	ParamLicenseManager    = "licenseManager"
	ParamUsername          = "username"
	ParamPassword          = "password"
	ParamToken             = "token"
)

// Template is a placeholder-parameterized SOAP body fragment.
type Template struct {
	// Operation is the SOAP operation name, used for logs and metrics.
	Operation string

	// Requires lists the parameters that must be present and non-empty.
	Requires []string

	tmpl *template.Template
}

// Render substitutes params into the template. Every value is XML-escaped.
func (t *Template) Render(params map[string]string) ([]byte, error) {
	escaped := make(map[string]string, len(params))
	for k, v := range params {
		var b strings.Builder
		if err := xml.EscapeText(&b, []byte(v)); err != nil {
			return nil, fmt.Errorf("failed to escape %s: %w", k, err)
		}
		escaped[k] = b.String()
	}

	for _, name := range t.Requires {
		if escaped[name] == "" {
			return nil, fmt.Errorf("%s: missing required parameter %q", t.Operation, name)
		}
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, escaped); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", t.Operation, err)
	}
	return buf.Bytes(), nil
}

// base holds the shared traversal specification; every inventory template
// is parsed from a clone of it.
var base = template.Must(template.New("base").
	Option("missingkey=error").
	Parse(`{{define "traversal"}}` + traversalSpec + `{{end}}`))

func newTemplate(operation, body string, requires ...string) *Template {
	t := template.Must(template.Must(base.Clone()).New(operation).Parse(body))
	return &Template{
		Operation: operation,
		Requires:  requires,
		tmpl:      t,
	}
}

// traversalSpec walks folder -> datacenter -> host/vm/datastore folders ->
// compute resource -> host/resource pool -> vm so that every managed object
// is visited regardless of nesting depth.
var traversalSpec = selectSpec("visitFolders", "Folder", "childEntity",
	"visitFolders", "dcToHf", "dcToVmf", "crToH", "crToRp", "dcToDs", "hToVm", "rpToVm") +
	selectSpec("dcToVmf", "Datacenter", "vmFolder", "visitFolders") +
	selectSpec("dcToDs", "Datacenter", "datastore", "visitFolders") +
	selectSpec("dcToHf", "Datacenter", "hostFolder", "visitFolders") +
	selectSpec("crToH", "ComputeResource", "host") +
	selectSpec("crToRp", "ComputeResource", "resourcePool", "rpToRp", "rpToVm") +
	selectSpec("rpToRp", "ResourcePool", "resourcePool", "rpToRp", "rpToVm") +
	selectSpec("hToVm", "HostSystem", "vm", "visitFolders") +
	selectSpec("rpToVm", "ResourcePool", "vm")

func selectSpec(name, typ, path string, next ...string) string {
	var b strings.Builder
	b.WriteString(`<ns1:selectSet xsi:type="ns1:TraversalSpec">`)
	fmt.Fprintf(&b, "<ns1:name>%s</ns1:name><ns1:type>%s</ns1:type><ns1:path>%s</ns1:path><ns1:skip>false</ns1:skip>", name, typ, path)
	for _, n := range next {
		fmt.Fprintf(&b, "<ns1:selectSet><ns1:name>%s</ns1:name></ns1:selectSet>", n)
	}
	b.WriteString(`</ns1:selectSet>`)
	return b.String()
}

func pathSet(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "<ns1:pathSet>%s</ns1:pathSet>", p)
	}
	return b.String()
}

// inventoryQuery builds a RetrievePropertiesEx request for every object of
// objType reachable from the root folder.
func inventoryQuery(objType string, paths []string) string {
	return `<ns1:RetrievePropertiesEx xsi:type="ns1:RetrievePropertiesExRequestType">` +
		`<ns1:_this type="PropertyCollector">{{.propertyCollector}}</ns1:_this>` +
		`<ns1:specSet><ns1:propSet><ns1:type>` + objType + `</ns1:type>` + pathSet(paths) + `</ns1:propSet>` +
		`<ns1:objectSet><ns1:obj type="Folder">{{.rootFolder}}</ns1:obj><ns1:skip>false</ns1:skip>` +
		`{{template "traversal"}}` +
		`</ns1:objectSet></ns1:specSet><ns1:options></ns1:options></ns1:RetrievePropertiesEx>`
}
