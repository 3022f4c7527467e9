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

// Package fwdengine is the boundary between the controller and the node
// managers that program SRv6 state into the forwarding engines. The
// controller only ever talks to a Programmer; the gRPC implementation lives
// in this package as well, so the policy logic stays testable with an
// in-memory fake.
package fwdengine

import (
	"context"
	"net/netip"

	"github.com/netgroup/srv6-controller/pkg/srv6"
)

// Endpoint identifies the gRPC server of a node manager.
type Endpoint struct {
	Addr netip.Addr
	Port int
}

// Programmer installs and removes SRv6 state on a node. Implementations
// return the status reported by the node manager; a non-nil error always
// carries a status other than StatusSuccess.
type Programmer interface {
	// ProgramPath installs, updates or removes an SRv6 path on the node.
	ProgramPath(ctx context.Context, node Endpoint,
		req srv6.PathRequest) (srv6.StatusCode, error)
	// ProgramBehavior installs, updates or removes an SRv6 behavior
	// (an entry of the local SID table) on the node.
	ProgramBehavior(ctx context.Context, node Endpoint,
		req srv6.BehaviorRequest) (srv6.StatusCode, error)
}
