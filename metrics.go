// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package merkleset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts operations performed against a Set. It deliberately does
// not track element count (spec Non-goals exclude size counters); it only
// counts how many times each operation was invoked.
type Metrics struct {
	adds     prometheus.Counter
	removes  prometheus.Counter
	includes prometheus.Counter
	audits   prometheus.Counter
}

// NewMetrics registers a fresh set of operation counters with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		adds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "merkleset_adds_total",
			Help: "number of add operations performed against the set",
		}),
		removes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "merkleset_removes_total",
			Help: "number of remove operations performed against the set",
		}),
		includes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "merkleset_includes_total",
			Help: "number of inclusion proofs generated",
		}),
		audits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "merkleset_audits_total",
			Help: "number of audit passes run against the set",
		}),
	}
}
