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

package collector

import (
	"fmt"
	"strings"
)

// QuerySet selects which inventory queries a collection runs.
type QuerySet string

const (
	// QueryAll runs every query.
	QueryAll QuerySet = "all"
	// QueryAbout reads the service metadata only and needs no login.
	QueryAbout QuerySet = "about"
	// QueryHosts collects host details.
	QueryHosts QuerySet = "hosts"
	// QueryHostList lists host names and references only.
	QueryHostList QuerySet = "hostlist"
	// QueryLicenses collects license usage.
	QueryLicenses QuerySet = "licenses"
	// QueryDatastores collects datastore summaries.
	QueryDatastores QuerySet = "datastores"
)

// SupportedQuerySets lists the accepted query set names.
func SupportedQuerySets() []string {
	return []string{
		string(QueryAll),
		string(QueryAbout),
		string(QueryHosts),
		string(QueryHostList),
		string(QueryLicenses),
		string(QueryDatastores),
	}
}

// ParseQuerySet parses a query set name, case-insensitively.
func ParseQuerySet(s string) (QuerySet, error) {
	q := QuerySet(strings.ToLower(strings.TrimSpace(s)))
	switch q {
	case QueryAll, QueryAbout, QueryHosts, QueryHostList, QueryLicenses, QueryDatastores:
		return q, nil
	default:
		return "", fmt.Errorf("unknown query set %q (supported: %s)", s, strings.Join(SupportedQuerySets(), ", "))
	}
}

// NeedsLogin reports whether the set touches protected inventory data.
func (q QuerySet) NeedsLogin() bool {
	return q != QueryAbout
}

// includes reports whether running q runs other. The host list is only
// run on its own since all already collects host details.
func (q QuerySet) includes(other QuerySet) bool {
	if q == QueryAll {
		return other != QueryHostList
	}
	return q == other
}
