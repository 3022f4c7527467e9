// Copyright 2021 Consortium GARR and University of Rome "Tor Vergata"
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/netgroup/srv6-controller/pkg/metrics"
)

const promNamespace = "srv6_controller"

// NewMetrics returns engine metrics backed by Prometheus counters registered
// on the default registerer. Call it at most once per process.
func NewMetrics() Metrics {
	return Metrics{
		PoliciesAdded: newCounter("usid_policies_added_total",
			"Total number of uSID policies successfully installed."),
		PoliciesDeleted: newCounter("usid_policies_deleted_total",
			"Total number of uSID policies successfully removed."),
		PolicyErrors: newCounter("usid_policy_errors_total",
			"Total number of failed uSID policy operations."),
		PathsProgrammed: newCounter("paths_programmed_total",
			"Total number of SRv6 paths shipped to a node manager."),
	}
}

func newCounter(name, help string) metrics.Counter {
	return metrics.NewPromCounter(promauto.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	}))
}
