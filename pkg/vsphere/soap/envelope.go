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

package soap

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	envelopeOpen = `<SOAP-ENV:Envelope xmlns:SOAP-ENC="http://schemas.xmlsoap.org/soap/encoding/" ` +
		`xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ZSI="http://www.zolera.com/schemas/ZSI/" ` +
		`xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/" xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" ` +
		`xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<SOAP-ENV:Header></SOAP-ENV:Header><SOAP-ENV:Body xmlns:ns1="urn:vim25">`
	envelopeClose = `</SOAP-ENV:Body></SOAP-ENV:Envelope>`
)

// Wrap places a request body fragment into the fixed SOAP envelope the
// vSphere SDK endpoint expects.
func Wrap(body []byte) []byte {
	out := make([]byte, 0, len(envelopeOpen)+len(body)+len(envelopeClose))
	out = append(out, envelopeOpen...)
	out = append(out, body...)
	out = append(out, envelopeClose...)
	return out
}

// Envelope is a parsed SOAP reply.
type Envelope struct {
	doc  *etree.Document
	body *etree.Element
}

// Parse parses a raw SOAP reply. It fails when the payload is not XML or
// carries no Envelope/Body.
func Parse(raw []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse SOAP reply: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("SOAP reply has no Envelope element")
	}

	body := root.SelectElement("Body")
	if body == nil {
		return nil, fmt.Errorf("SOAP reply has no Body element")
	}

	return &Envelope{doc: doc, body: body}, nil
}

// Response returns the first element inside Body, i.e. the
// <OperationResponse> or the <Fault>. Nil for an empty body.
func (e *Envelope) Response() *etree.Element {
	children := e.body.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// FindAll returns every element below Body matching the etree path,
// for example "returnval/objects".
func (e *Envelope) FindAll(path string) []*etree.Element {
	return e.body.FindElements(".//" + strings.TrimPrefix(path, "/"))
}

// Find returns the first element below Body matching the etree path.
func (e *Envelope) Find(path string) *etree.Element {
	return e.body.FindElement(".//" + strings.TrimPrefix(path, "/"))
}

// Token returns the continuation token of a RetrievePropertiesEx or
// ContinueRetrievePropertiesEx reply, empty when the result is complete.
func (e *Envelope) Token() string {
	resp := e.Response()
	if resp == nil {
		return ""
	}
	rv := resp.SelectElement("returnval")
	if rv == nil {
		return ""
	}
	tok := rv.SelectElement("token")
	if tok == nil {
		return ""
	}
	return strings.TrimSpace(tok.Text())
}

// Objects returns the <objects> entries of a property collector reply.
func (e *Envelope) Objects() []*etree.Element {
	resp := e.Response()
	if resp == nil {
		return nil
	}
	var out []*etree.Element
	for _, rv := range resp.SelectElements("returnval") {
		out = append(out, rv.SelectElements("objects")...)
	}
	return out
}

// Fault returns the SOAP fault carried by the reply, or nil.
func (e *Envelope) Fault() *Fault {
	resp := e.Response()
	if resp == nil || resp.Tag != "Fault" {
		return nil
	}

	f := &Fault{}
	if el := resp.SelectElement("faultcode"); el != nil {
		f.Code = strings.TrimSpace(el.Text())
	}
	if el := resp.SelectElement("faultstring"); el != nil {
		f.String = strings.TrimSpace(el.Text())
	}
	if detail := resp.SelectElement("detail"); detail != nil {
		for _, d := range detail.ChildElements() {
			f.Detail = append(f.Detail, d.Tag)
			if t := d.SelectAttrValue("xsi:type", ""); t != "" {
				f.Detail = append(f.Detail, t)
			}
		}
	}
	return f
}

// Fault is the decoded content of a SOAP Fault element.
type Fault struct {
	Code   string
	String string
	// Detail holds the element names and xsi:type values found under
	// <detail>, e.g. "NotAuthenticatedFault", "NotAuthenticated".
	Detail []string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if len(f.Detail) > 0 {
		return fmt.Sprintf("soap fault %s: %s (%s)", f.Code, f.String, f.Detail[0])
	}
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// HasDetail reports whether the fault detail names the given fault type.
func (f *Fault) HasDetail(name string) bool {
	for _, d := range f.Detail {
		if d == name {
			return true
		}
	}
	return false
}

// Mentions reports whether marker appears in the fault string or names a
// detail element.
func (f *Fault) Mentions(marker string) bool {
	return strings.Contains(f.String, marker) || f.HasDetail(marker)
}

// ObjectRef is a server-assigned managed object reference such as
// <obj type="HostSystem">host-10</obj>.
type ObjectRef struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// String returns "type:value".
func (r ObjectRef) String() string {
	return r.Type + ":" + r.Value
}

// RefOf decodes a managed object reference element. A nil element yields
// the zero ObjectRef.
func RefOf(el *etree.Element) ObjectRef {
	if el == nil {
		return ObjectRef{}
	}
	return ObjectRef{
		Type:  el.SelectAttrValue("type", ""),
		Value: strings.TrimSpace(el.Text()),
	}
}

// InnerXML serializes the children of el. Leaf elements yield their text.
func InnerXML(el *etree.Element) string {
	children := el.ChildElements()
	if len(children) == 0 {
		return el.Text()
	}

	doc := etree.NewDocument()
	for _, c := range children {
		doc.AddChild(c.Copy())
	}
	s, err := doc.WriteToString()
	if err != nil {
		return el.Text()
	}
	return s
}
