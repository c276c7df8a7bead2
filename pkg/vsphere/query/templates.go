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

// HostDetailPaths are the HostSystem properties requested per host.
var HostDetailPaths = []string{
	"name",
	"overallStatus",
	"runtime.powerState",
	"runtime.inMaintenanceMode",
	"summary.quickStats.overallCpuUsage",
	"summary.quickStats.overallMemoryUsage",
	"hardware.biosInfo.biosVersion",
	"hardware.biosInfo.releaseDate",
	"hardware.cpuInfo.hz",
	"hardware.cpuInfo.numCpuCores",
	"hardware.cpuInfo.numCpuPackages",
	"hardware.cpuInfo.numCpuThreads",
	"hardware.cpuPkg",
	"hardware.memorySize",
	"hardware.pciDevice",
	"hardware.systemInfo.model",
	"hardware.systemInfo.uuid",
	"hardware.systemInfo.vendor",
	"hardware.systemInfo.otherIdentifyingInfo",
	"config.multipathState.path",
	"runtime.healthSystemRuntime.systemHealthInfo.numericSensorInfo",
	"runtime.healthSystemRuntime.hardwareStatusInfo.storageStatusInfo",
	"runtime.healthSystemRuntime.hardwareStatusInfo.cpuStatusInfo",
	"runtime.healthSystemRuntime.hardwareStatusInfo.memoryStatusInfo",
}

// DatastorePaths are the Datastore summary fields requested per datastore.
var DatastorePaths = []string{
	"summary.name",
	"summary.capacity",
	"summary.freeSpace",
	"summary.uncommitted",
	"summary.url",
	"summary.accessible",
	"summary.type",
	"summary.maintenanceMode",
}

var (
	// SystemInfo retrieves the service content. It needs no parameters and
	// is always issuable before authentication.
	SystemInfo = newTemplate("RetrieveServiceContent",
		`<ns1:RetrieveServiceContent xsi:type="ns1:RetrieveServiceContentRequestType">`+
			`<ns1:_this type="ServiceInstance">ServiceInstance</ns1:_this></ns1:RetrieveServiceContent>`)

	// Login opens an authenticated session.
	Login = newTemplate("Login",
		`<ns1:Login xsi:type="ns1:LoginRequestType">`+
			`<ns1:_this type="SessionManager">{{.sessionManager}}</ns1:_this>`+
			`<ns1:userName>{{.username}}</ns1:userName><ns1:password>{{.password}}</ns1:password></ns1:Login>`,
		ParamSessionManager, ParamUsername)

	// Logout closes the authenticated session.
	Logout = newTemplate("Logout",
		`<ns1:Logout xsi:type="ns1:LogoutRequestType">`+
			`<ns1:_this type="SessionManager">{{.sessionManager}}</ns1:_this></ns1:Logout>`,
		ParamSessionManager)

	// Continue fetches the next page of a paginated property collector result.
	Continue = newTemplate("ContinueRetrievePropertiesEx",
		`<ns1:ContinueRetrievePropertiesEx xsi:type="ns1:ContinueRetrievePropertiesExRequestType">`+
			`<ns1:_this type="PropertyCollector">{{.propertyCollector}}</ns1:_this>`+
			`<ns1:token>{{.token}}</ns1:token></ns1:ContinueRetrievePropertiesEx>`,
		ParamPropertyCollector, ParamToken)

	// HostList retrieves the display name of every host in the inventory.
	HostList = newTemplate("RetrievePropertiesEx",
		inventoryQuery("HostSystem", []string{"name"}),
		ParamPropertyCollector, ParamRootFolder)

	// HostDetail retrieves HostDetailPaths for every host in the inventory.
	HostDetail = newTemplate("RetrievePropertiesEx",
		inventoryQuery("HostSystem", HostDetailPaths),
		ParamPropertyCollector, ParamRootFolder)

	// Datastores retrieves DatastorePaths for every datastore in the inventory.
	Datastores = newTemplate("RetrievePropertiesEx",
		inventoryQuery("Datastore", DatastorePaths),
		ParamPropertyCollector, ParamRootFolder)

	// Licenses retrieves the license usage list of the license manager.
	Licenses = newTemplate("RetrievePropertiesEx",
		`<ns1:RetrievePropertiesEx xsi:type="ns1:RetrievePropertiesExRequestType">`+
			`<ns1:_this type="PropertyCollector">{{.propertyCollector}}</ns1:_this>`+
			`<ns1:specSet><ns1:propSet><ns1:type>LicenseManager</ns1:type><ns1:pathSet>licenses</ns1:pathSet></ns1:propSet>`+
			`<ns1:objectSet><ns1:obj type="LicenseManager">{{.licenseManager}}</ns1:obj></ns1:objectSet>`+
			`</ns1:specSet><ns1:options></ns1:options></ns1:RetrievePropertiesEx>`,
		ParamPropertyCollector, ParamLicenseManager)
)
