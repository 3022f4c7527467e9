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

package nodedir

import (
	"net/netip"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/pkg/usid"
)

// Binding carries the endpoint parameters for a path endpoint that is not
// described in the directory (a waypoint given as an IPv6 literal or a bare
// uSID identifier).
type Binding struct {
	GRPCAddr  netip.Addr
	GRPCPort  int
	FwdEngine srv6.FwdEngine
}

// WaypointQuery is a request to resolve the waypoint list of one path
// direction into node records.
type WaypointQuery struct {
	// Tokens are the waypoints, each a node name, an IPv6 literal (uN SID)
	// or a bare uSID identifier.
	Tokens []string
	// Left and Right are the endpoint bindings applied to the first and
	// last waypoint respectively, when those waypoints are not directory
	// names. They are mandatory in that case.
	Left, Right *Binding
	// DecapSID is the decap SID attached to the endpoints resolved through
	// Left/Right. It is either an IPv6 literal or a bare uSID identifier.
	DecapSID string
	// Locator is the SID locator used to expand bare uSID identifiers.
	Locator netip.Addr
}

// ResolveWaypoints maps every waypoint token of the query to a full node
// record. A token is resolved, in order of priority, as an IPv6 literal, as
// a bare uSID identifier (when a locator is available), or as a directory
// name. A token matching none of the three fails with ErrNodeNotFound: an
// unresolvable waypoint fails the whole path rather than being skipped.
func (d *Directory) ResolveWaypoints(q WaypointQuery) ([]NodeRecord, error) {
	if len(q.Tokens) == 0 {
		return nil, serrors.New("empty waypoint list")
	}
	udt, err := d.resolveDecapSID(q)
	if err != nil {
		return nil, err
	}
	records := make([]NodeRecord, 0, len(q.Tokens))
	for i, token := range q.Tokens {
		rec, err := d.resolveWaypoint(token, q, udt, i == 0, i == len(q.Tokens)-1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d *Directory) resolveWaypoint(token string, q WaypointQuery, udt netip.Addr,
	isFirst, isLast bool) (NodeRecord, error) {

	if un, err := parseIPv6(token); err == nil {
		return d.bindEndpoint(NodeRecord{Name: token, UN: un}, q, udt, isFirst, isLast)
	}
	if id, ok := usid.ParseID(token, d.BitWidth); ok && q.Locator.IsValid() {
		un := usid.IDToSID(id, q.Locator, d.BitWidth)
		return d.bindEndpoint(NodeRecord{Name: token, UN: un}, q, udt, isFirst, isLast)
	}
	if rec, ok := d.Nodes[token]; ok {
		return rec, nil
	}
	return NodeRecord{}, serrors.Join(ErrNodeNotFound, nil, "node", token)
}

// bindEndpoint attaches the left/right endpoint binding to a synthetic
// record. Intermediate waypoints are not programmed directly and get no
// endpoint.
func (d *Directory) bindEndpoint(rec NodeRecord, q WaypointQuery, udt netip.Addr,
	isFirst, isLast bool) (NodeRecord, error) {

	if !isFirst && !isLast {
		return rec, nil
	}
	binding := q.Left
	if !isFirst {
		binding = q.Right
	}
	if binding == nil || !binding.GRPCAddr.IsValid() || binding.GRPCPort == 0 ||
		binding.FwdEngine == srv6.FwdEngineUnspec {

		return NodeRecord{}, serrors.Join(ErrMandatoryField, nil,
			"node", rec.Name, "fields", "grpc_ip, grpc_port, fwd_engine")
	}
	rec.GRPCAddr = binding.GRPCAddr
	rec.GRPCPort = binding.GRPCPort
	rec.FwdEngine = binding.FwdEngine
	rec.UDT = udt
	return rec, nil
}

func (d *Directory) resolveDecapSID(q WaypointQuery) (netip.Addr, error) {
	if q.DecapSID == "" {
		return netip.Addr{}, nil
	}
	if udt, err := parseIPv6(q.DecapSID); err == nil {
		return udt, nil
	}
	if !q.Locator.IsValid() {
		return netip.Addr{}, serrors.Join(ErrMandatoryField, nil,
			"fields", "locator", "reason", "decap sid is a uSID identifier")
	}
	id, ok := usid.ParseID(q.DecapSID, d.BitWidth)
	if !ok {
		return netip.Addr{}, serrors.Join(ErrInvalidConfiguration, nil,
			"decap_sid", q.DecapSID)
	}
	return usid.IDToSID(id, q.Locator, d.BitWidth), nil
}
