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

package srv6

import (
	"net/netip"
	"slices"
)

// UsidPolicy is a persisted bidirectional uSID policy: traffic matching
// LRDestination is steered through the NodesLR waypoints, traffic matching
// RLDestination through the NodesRL waypoints. Waypoints are stored as the
// tokens supplied by the operator (names, IPv6 literals or uSID identifiers)
// and re-resolved against the node directory on every operation.
type UsidPolicy struct {
	// ID is the opaque key assigned by the persistence store on creation.
	ID            string
	LRDestination netip.Prefix
	RLDestination netip.Prefix
	NodesLR       []string
	NodesRL       []string
	Table         int
	Metric        int

	// Endpoint bindings for waypoints not present in the node directory.
	LGRPCAddr  netip.Addr
	LGRPCPort  int
	LFwdEngine FwdEngine
	RGRPCAddr  netip.Addr
	RGRPCPort  int
	RFwdEngine FwdEngine
	// DecapSID is the decap SID of the endpoints, an IPv6 literal or a
	// bare uSID identifier.
	DecapSID string
	// Locator expands bare uSID identifiers in the waypoint lists.
	Locator netip.Addr
}

// SymmetricEndpoints reports whether the two waypoint lists connect the same
// pair of endpoints: the forward path must end where the reverse path starts
// and vice versa.
func (p UsidPolicy) SymmetricEndpoints() bool {
	if len(p.NodesLR) == 0 || len(p.NodesRL) == 0 {
		return false
	}
	return p.NodesLR[0] == p.NodesRL[len(p.NodesRL)-1] &&
		p.NodesRL[0] == p.NodesLR[len(p.NodesLR)-1]
}

// ReversedNodesLR returns the reversed forward waypoint list, the default
// reverse path of a symmetric policy.
func (p UsidPolicy) ReversedNodesLR() []string {
	rev := slices.Clone(p.NodesLR)
	slices.Reverse(rev)
	return rev
}

// PolicyFilter selects stored policies by any combination of fields. Zero
// values match everything: an invalid prefix, a nil node list and
// UnsetTableMetric are ignored.
type PolicyFilter struct {
	ID            string
	LRDestination netip.Prefix
	RLDestination netip.Prefix
	NodesLR       []string
	NodesRL       []string
	Table         int
	Metric        int
}

// MatchAllFilter returns a filter matching every stored policy.
func MatchAllFilter() PolicyFilter {
	return PolicyFilter{Table: UnsetTableMetric, Metric: UnsetTableMetric}
}
