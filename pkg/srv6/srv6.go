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

// Package srv6 contains the data model shared between the controller core and
// the node manager boundary: forwarding engines, path and behavior requests,
// and the status codes reported back to the operator.
package srv6

import (
	"net/netip"
	"strings"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// UnsetTableMetric is the sentinel for the table and metric fields of a
// request, meaning "unset, let the forwarding engine decide".
const UnsetTableMetric = -1

// FwdEngine identifies the forwarding engine running on a node.
type FwdEngine int

// Supported forwarding engines.
const (
	FwdEngineUnspec FwdEngine = iota
	FwdEngineLinux
	FwdEngineVPP
	FwdEngineP4
)

// ParseFwdEngine parses a forwarding engine name as it appears in the node
// directory ("Linux", "VPP", "P4").
func ParseFwdEngine(s string) (FwdEngine, error) {
	switch strings.ToLower(s) {
	case "linux":
		return FwdEngineLinux, nil
	case "vpp":
		return FwdEngineVPP, nil
	case "p4":
		return FwdEngineP4, nil
	}
	return FwdEngineUnspec, serrors.New("unsupported forwarding engine", "fwd_engine", s)
}

func (e FwdEngine) String() string {
	switch e {
	case FwdEngineLinux:
		return "Linux"
	case FwdEngineVPP:
		return "VPP"
	case FwdEngineP4:
		return "P4"
	}
	return "Unspec"
}

// SupportsEncap reports whether the engine can play the encapsulating role of
// an SRv6 path. Intermediate nodes can run any engine, the encap endpoints
// currently only Linux and VPP.
func (e FwdEngine) SupportsEncap() bool {
	return e == FwdEngineLinux || e == FwdEngineVPP
}

// Op is the operation performed on a path, behavior or policy.
type Op int

// Supported operations.
const (
	OpAdd Op = iota
	OpGet
	OpChange
	OpDel
)

// ParseOp parses an operation name.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(s) {
	case "add":
		return OpAdd, nil
	case "get":
		return OpGet, nil
	case "change":
		return OpChange, nil
	case "del":
		return OpDel, nil
	}
	return OpAdd, serrors.New("unsupported operation", "op", s)
}

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpGet:
		return "get"
	case OpChange:
		return "change"
	case OpDel:
		return "del"
	}
	return "unknown"
}

// EncapMode selects how the SID list is attached to packets matching an SRv6
// route.
type EncapMode string

// Supported encap modes.
const (
	EncapModeUnset   EncapMode = ""
	EncapModeEncap   EncapMode = "encap"
	EncapModeInline  EncapMode = "inline"
	EncapModeL2Encap EncapMode = "l2encap"
	// EncapModeEncapRed is the reduced encapsulation mode: the first segment
	// is carried only in the IPv6 destination address, not repeated in the
	// SRH. uSID policies are always installed with this mode.
	EncapModeEncapRed EncapMode = "encap.red"
)

// Valid reports whether the encap mode is one of the supported modes.
func (m EncapMode) Valid() bool {
	switch m {
	case EncapModeUnset, EncapModeEncap, EncapModeInline, EncapModeL2Encap, EncapModeEncapRed:
		return true
	}
	return false
}

// PathRequest describes one SRv6 route to be installed on (or removed from) a
// node: traffic matching Destination is steered through Segments.
type PathRequest struct {
	Op          Op
	Destination netip.Prefix
	Segments    []netip.Addr
	Device      string
	EncapMode   EncapMode
	Table       int
	Metric      int
	// BSIDAddr is the binding SID required by VPP's SR policy abstraction.
	// Empty for Linux nodes.
	BSIDAddr  string
	FwdEngine FwdEngine
}

// Validate checks the request for consistency before it is shipped to a node
// manager.
func (r PathRequest) Validate() error {
	if !r.Destination.IsValid() {
		return serrors.New("destination is mandatory")
	}
	if r.Op == OpAdd && len(r.Segments) == 0 {
		return serrors.New("segments are mandatory for add operation")
	}
	if !r.EncapMode.Valid() {
		return serrors.New("unsupported encap mode", "encapmode", r.EncapMode)
	}
	if r.FwdEngine == FwdEngineVPP && r.Op != OpGet && r.BSIDAddr == "" {
		return serrors.New("bsid address is mandatory for VPP", "destination", r.Destination)
	}
	return nil
}

// StatusCode is the node manager status reported for one operation. The
// values mirror the node manager wire protocol.
type StatusCode int

// Status codes of the node manager protocol.
const (
	StatusSuccess StatusCode = iota
	StatusOperationNotSupported
	StatusBadRequest
	StatusInternalError
	StatusInvalidGRPCRequest
	StatusFileExists
	StatusNoSuchProcess
	StatusInvalidAction
	StatusServiceUnavailable
	StatusUnauthorized
	StatusNotConfigured
	StatusAlreadyConfigured
	StatusNoSuchDevice
	// StatusPartiallyProgrammed reports that the ingress side of a
	// bidirectional policy was programmed but the egress side failed. The
	// installed half is not rolled back; the operator must reconcile.
	StatusPartiallyProgrammed
	StatusPolicyNotFound
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusOperationNotSupported:
		return "Operation not supported"
	case StatusBadRequest:
		return "Bad request"
	case StatusInternalError:
		return "Internal error"
	case StatusInvalidGRPCRequest:
		return "Invalid gRPC request"
	case StatusFileExists:
		return "An entity already exists"
	case StatusNoSuchProcess:
		return "No such process"
	case StatusInvalidAction:
		return "Invalid seg6local action"
	case StatusServiceUnavailable:
		return "gRPC service unavailable"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusNotConfigured:
		return "Node not configured"
	case StatusAlreadyConfigured:
		return "Node already configured"
	case StatusNoSuchDevice:
		return "No such device"
	case StatusPartiallyProgrammed:
		return "Partially programmed: ingress installed, egress failed"
	case StatusPolicyNotFound:
		return "Policy not found"
	}
	return "Unknown status"
}
