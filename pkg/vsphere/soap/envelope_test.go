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
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	replyHead = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soapenv:Envelope xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/" ` +
		`xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" ` +
		`xmlns:xsd="http://www.w3.org/2001/XMLSchema" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><soapenv:Body>`
	replyTail = `</soapenv:Body></soapenv:Envelope>`
)

func reply(body string) []byte {
	return []byte(replyHead + body + replyTail)
}

func TestWrap(t *testing.T) {
	out := string(Wrap([]byte("<ns1:Ping/>")))

	assert.True(t, strings.HasPrefix(out, "<SOAP-ENV:Envelope "))
	assert.Contains(t, out, `<SOAP-ENV:Body xmlns:ns1="urn:vim25"><ns1:Ping/></SOAP-ENV:Body>`)
	assert.True(t, strings.HasSuffix(out, "</SOAP-ENV:Envelope>"))

	// the wrapped request must itself be a parseable envelope
	env, err := Parse(Wrap([]byte(`<ns1:Ping xmlns:ns1="urn:vim25"/>`)))
	require.NoError(t, err)
	require.NotNil(t, env.Response())
	assert.Equal(t, "Ping", env.Response().Tag)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not xml", "this is not xml <"},
		{"empty", ""},
		{"wrong root", "<html><body>error</body></html>"},
		{"no body", replyHead[:strings.Index(replyHead, "<soapenv:Body>")] + "</soapenv:Envelope>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestEnvelope_TokenAndObjects(t *testing.T) {
	env, err := Parse(reply(`<RetrievePropertiesExResponse xmlns="urn:vim25"><returnval>` +
		`<token>1</token>` +
		`<objects><obj type="HostSystem">host-10</obj><propSet><name>name</name><val xsi:type="xsd:string">esx01</val></propSet></objects>` +
		`<objects><obj type="HostSystem">host-11</obj><propSet><name>name</name><val xsi:type="xsd:string">esx02</val></propSet></objects>` +
		`</returnval></RetrievePropertiesExResponse>`))
	require.NoError(t, err)

	assert.Equal(t, "1", env.Token())
	assert.Nil(t, env.Fault())

	objs := env.Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, ObjectRef{Type: "HostSystem", Value: "host-10"}, RefOf(objs[0].SelectElement("obj")))
	assert.Equal(t, "HostSystem:host-11", RefOf(objs[1].SelectElement("obj")).String())
	assert.Len(t, env.FindAll("propSet"), 2)
	assert.Equal(t, "esx01", env.Find("propSet/val").Text())
}

func TestEnvelope_NoToken(t *testing.T) {
	env, err := Parse(reply(`<RetrievePropertiesExResponse xmlns="urn:vim25"><returnval>` +
		`<objects><obj type="Datastore">datastore-1</obj></objects>` +
		`</returnval></RetrievePropertiesExResponse>`))
	require.NoError(t, err)
	assert.Empty(t, env.Token())

	empty, err := Parse(reply(""))
	require.NoError(t, err)
	assert.Nil(t, empty.Response())
	assert.Empty(t, empty.Token())
	assert.Nil(t, empty.Objects())
	assert.Nil(t, empty.Fault())
}

func TestEnvelope_Fault(t *testing.T) {
	env, err := Parse(reply(`<soapenv:Fault><faultcode>ServerFaultCode</faultcode>` +
		`<faultstring>The session is not authenticated.</faultstring>` +
		`<detail><NotAuthenticatedFault xmlns="urn:vim25" xsi:type="NotAuthenticated">` +
		`<object type="Folder">group-d1</object><privilegeId>System.View</privilegeId>` +
		`</NotAuthenticatedFault></detail></soapenv:Fault>`))
	require.NoError(t, err)

	f := env.Fault()
	require.NotNil(t, f)
	assert.Equal(t, "ServerFaultCode", f.Code)
	assert.Equal(t, "The session is not authenticated.", f.String)
	assert.True(t, f.HasDetail("NotAuthenticatedFault"))
	assert.True(t, f.HasDetail("NotAuthenticated"))
	assert.False(t, f.HasDetail("InvalidLoginFault"))
	assert.True(t, f.Mentions("The session is not authenticated"))
	assert.True(t, f.Mentions("NotAuthenticatedFault"))
	assert.Contains(t, f.Error(), "NotAuthenticatedFault")
}

func TestInnerXML(t *testing.T) {
	env, err := Parse(reply(`<R xmlns="urn:vim25"><returnval>` +
		`<leaf>plain &amp; simple</leaf>` +
		`<complex><a>1</a><b>2</b></complex>` +
		`</returnval></R>`))
	require.NoError(t, err)

	assert.Equal(t, "plain & simple", InnerXML(env.Find("leaf")))
	assert.Equal(t, "<a>1</a><b>2</b>", InnerXML(env.Find("complex")))
}

func TestSessionCookie(t *testing.T) {
	h := http.Header{}
	assert.Empty(t, SessionCookie(h))

	h.Add("Set-Cookie", `vmware_soap_session="52f0c1e4-aa"; Path=/; HttpOnly; Secure;`)
	h.Add("Set-Cookie", `other=1`)
	assert.Equal(t, `vmware_soap_session="52f0c1e4-aa"`, SessionCookie(h))
}
