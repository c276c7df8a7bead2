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

// Package vspheretest provides an in-process vSphere SDK endpoint for
// tests. It answers RetrieveServiceContent, Login, Logout,
// RetrievePropertiesEx and ContinueRetrievePropertiesEx over TLS, issues
// session cookies and paginates canned property collector results.
package vspheretest

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
)

// Credentials accepted by a new Server.
const (
	Username = "monitor@vsphere.local"
	Password = "s3cr3t&<pass>"
)

// ServiceContent is the default RetrieveServiceContent reply body.
const ServiceContent = `<RetrieveServiceContentResponse xmlns="urn:vim25"><returnval>` +
	`<rootFolder type="Folder">group-d1</rootFolder>` +
	`<propertyCollector type="PropertyCollector">propertyCollector</propertyCollector>` +
	`<viewManager type="ViewManager">ViewManager</viewManager>` +
	`<about><name>VMware vCenter Server</name><fullName>VMware vCenter Server 8.0.2 build-22617221</fullName>` +
	`<vendor>VMware, Inc.</vendor><version>8.0.2</version><build>22617221</build>` +
	`<localeVersion>INTL</localeVersion><localeBuild>000</localeBuild><osType>linux-x64</osType>` +
	`<productLineId>vpx</productLineId><apiType>VirtualCenter</apiType><apiVersion>8.0.2.0</apiVersion>` +
	`<instanceUuid>0b1e8c7a-5bd8-4f55-a0f4-7d0e3b0f2c11</instanceUuid>` +
	`<licenseProductName>VMware VirtualCenter Server</licenseProductName><licenseProductVersion>8.0</licenseProductVersion></about>` +
	`<sessionManager type="SessionManager">SessionManager</sessionManager>` +
	`<licenseManager type="LicenseManager">LicenseManager</licenseManager>` +
	`<perfManager type="PerformanceManager">PerfMgr</perfManager>` +
	`</returnval></RetrieveServiceContentResponse>`

// EmptyServiceContent is a RetrieveServiceContent reply carrying nothing.
const EmptyServiceContent = `<RetrieveServiceContentResponse xmlns="urn:vim25"><returnval></returnval></RetrieveServiceContentResponse>`

// Faults returned by the server.
var (
	// NotAuthenticated is the recoverable expiry fault sent for an unknown cookie.
	NotAuthenticated = Fault("ServerFaultCode", "The session is not authenticated.", "NotAuthenticatedFault", "NotAuthenticated")

	// NotAuthenticatedFatal carries the fault type without the recoverable faultstring.
	NotAuthenticatedFatal = Fault("ServerFaultCode", "Permission to perform this operation was denied.", "NotAuthenticatedFault", "NotAuthenticated")

	// InvalidLogin rejects credentials.
	InvalidLogin = Fault("ServerFaultCode", "Cannot complete login due to an incorrect user name or password.", "InvalidLoginFault", "InvalidLogin")

	// InvalidProperty is an unrelated fault.
	InvalidProperty = Fault("ServerFaultCode", "", "InvalidPropertyFault", "InvalidProperty")
)

// Fault builds a SOAP fault body.
func Fault(code, message, detail, xsiType string) string {
	return `<soapenv:Fault><faultcode>` + code + `</faultcode><faultstring>` + message + `</faultstring>` +
		`<detail><` + detail + ` xmlns="urn:vim25" xsi:type="` + xsiType + `"/></detail></soapenv:Fault>`
}

// Prop builds a property collector propSet with raw inner XML as value.
func Prop(name, val string) string {
	return `<propSet><name>` + name + `</name><val>` + val + `</val></propSet>`
}

// Object builds a property collector <objects> entry.
func Object(objType, ref string, props ...string) string {
	return `<objects><obj type="` + objType + `">` + ref + `</obj>` + strings.Join(props, "") + `</objects>`
}

// Server is a fake vSphere SDK endpoint.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// ServiceContent is returned for RetrieveServiceContent.
	serviceContent string

	sessions map[string]bool
	nextID   int

	// results holds the pages of <objects> per queried object type.
	results map[string][]string

	// queued replies consumed by the next protected requests
	queued []string

	calls   map[string]int
	cookies []string
}

// NewServer starts a TLS Server and stops it on test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		serviceContent: ServiceContent,
		sessions:       make(map[string]bool),
		results:        make(map[string][]string),
		calls:          make(map[string]int),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Host returns the listen host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Listener.Addr().String())
	return host
}

// Port returns the listen port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// SetServiceContent replaces the RetrieveServiceContent reply body.
func (s *Server) SetServiceContent(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceContent = body
}

// SetObjects sets the paginated result for objType. Each page is a
// concatenation of Object entries; every page but the last carries a
// continuation token.
func (s *Server) SetObjects(objType string, pages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[objType] = pages
}

// FailNext queues a raw reply body for the next protected request.
func (s *Server) FailNext(body ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, body...)
}

// AddSession registers cookie as a live session, as if issued earlier.
func (s *Server) AddSession(cookie string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[cookie] = true
}

// ExpireSessions forgets every issued cookie.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}

// Calls returns how many requests of operation were received.
func (s *Server) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// TotalCalls returns the number of requests received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Cookies returns the Cookie header of every request, in order.
func (s *Server) Cookies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := doc.FindElement("//Body/*")
	if req == nil {
		http.Error(w, "no request element", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[req.Tag]++
	s.cookies = append(s.cookies, r.Header.Get("Cookie"))

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")

	switch req.Tag {
	case "RetrieveServiceContent":
		s.write(w, s.serviceContent)
	case "Login":
		s.login(w, req)
	case "Logout":
		delete(s.sessions, r.Header.Get("Cookie"))
		s.write(w, `<LogoutResponse xmlns="urn:vim25"></LogoutResponse>`)
	case "RetrievePropertiesEx", "ContinueRetrievePropertiesEx":
		s.retrieve(w, r, req)
	default:
		s.write(w, Fault("ServerFaultCode", "unsupported operation "+req.Tag, "MethodFault", "MethodFault"))
	}
}

func (s *Server) login(w http.ResponseWriter, req *etree.Element) {
	user := req.FindElement("userName")
	pass := req.FindElement("password")
	if user == nil || pass == nil || user.Text() != Username || pass.Text() != Password {
		s.write(w, InvalidLogin)
		return
	}

	s.nextID++
	cookie := fmt.Sprintf(`vmware_soap_session="session-%d"`, s.nextID)
	s.sessions[cookie] = true

	w.Header().Add("Set-Cookie", cookie+"; Path=/; HttpOnly; Secure;")
	s.write(w, `<LoginResponse xmlns="urn:vim25"><returnval><key>session-`+strconv.Itoa(s.nextID)+`</key>`+
		`<userName>`+Username+`</userName></returnval></LoginResponse>`)
}

func (s *Server) retrieve(w http.ResponseWriter, r *http.Request, req *etree.Element) {
	if len(s.queued) > 0 {
		body := s.queued[0]
		s.queued = s.queued[1:]
		s.write(w, body)
		return
	}

	if !s.sessions[r.Header.Get("Cookie")] {
		s.write(w, NotAuthenticated)
		return
	}

	var (
		objType string
		page    int
	)
	if req.Tag == "ContinueRetrievePropertiesEx" {
		tok := req.FindElement("token")
		if tok == nil {
			s.write(w, InvalidProperty)
			return
		}
		typ, idx, _ := strings.Cut(tok.Text(), ":")
		objType = typ
		page, _ = strconv.Atoi(idx)
	} else if el := req.FindElement(".//propSet/type"); el != nil {
		objType = el.Text()
	}

	pages := s.results[objType]
	var body strings.Builder
	body.WriteString(`<` + req.Tag + `Response xmlns="urn:vim25">`)
	if page < len(pages) {
		body.WriteString(`<returnval>`)
		if page+1 < len(pages) {
			fmt.Fprintf(&body, "<token>%s:%d</token>", objType, page+1)
		}
		body.WriteString(pages[page])
		body.WriteString(`</returnval>`)
	}
	body.WriteString(`</` + req.Tag + `Response>`)
	s.write(w, body.String())
}

func (s *Server) write(w http.ResponseWriter, body string) {
	if strings.Contains(body, "<soapenv:Fault>") {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
		`<soapenv:Envelope xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/" `+
		`xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" `+
		`xmlns:xsd="http://www.w3.org/2001/XMLSchema" `+
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><soapenv:Body>`+
		body+`</soapenv:Body></soapenv:Envelope>`)
}
