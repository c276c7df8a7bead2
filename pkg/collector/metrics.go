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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collection run metrics
	collectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vsphere_collection_duration_seconds",
			Help:    "Time taken to collect all targets of a run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	collectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_collection_total",
			Help: "Total number of target collection attempts",
		},
		[]string{"status"}, // success or error
	)

	collectorQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsphere_collection_query_duration_seconds",
			Help:    "Time taken by individual inventory queries",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"query"}, // about, hosts, licenses, datastores
	)

	collectedObjects = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsphere_collected_objects",
			Help: "Number of objects in the last collection per target and kind",
		},
		[]string{"target", "kind"}, // hosts, licenses, datastores
	)
)
