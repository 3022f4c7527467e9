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

// Package controller implements the uSID policy state machine. A policy is a
// bidirectional SRv6 tunnel between two edge nodes: the engine resolves the
// operator-supplied waypoints against the node directory, compresses the
// resulting SID lists into micro-segment lists, programs both tunnel
// directions through the forwarding engine boundary and keeps the policy
// store in sync.
package controller

import (
	"context"
	"net/netip"

	"github.com/netgroup/srv6-controller/controller/fwdengine"
	"github.com/netgroup/srv6-controller/pkg/log"
	"github.com/netgroup/srv6-controller/pkg/metrics"
	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/pkg/usid"
	"github.com/netgroup/srv6-controller/private/nodedir"
)

// Package level errors.
var (
	ErrPolicyNotFound = serrors.New("policy not found")
	ErrPolicyExists   = serrors.New("policy already exists")
	ErrBadEndpoints   = serrors.New("bad tunnel endpoints")
)

// DirectoryLoader provides the node directory. The directory is reloaded on
// every operation, so that node changes are picked up without restarting.
type DirectoryLoader interface {
	Load() (*nodedir.Directory, error)
}

// FileDirectory loads the node directory from a YAML file.
type FileDirectory struct {
	Path string
}

func (f FileDirectory) Load() (*nodedir.Directory, error) {
	return nodedir.LoadFile(f.Path)
}

// PolicyStore is the persistence boundary of the engine.
type PolicyStore interface {
	Insert(ctx context.Context, p srv6.UsidPolicy) (string, error)
	Match(ctx context.Context, f srv6.PolicyFilter) ([]srv6.UsidPolicy, error)
	Delete(ctx context.Context, id string) (int, error)
}

// Metrics used by the engine. A nil counter is a no-op.
type Metrics struct {
	PoliciesAdded   metrics.Counter
	PoliciesDeleted metrics.Counter
	PolicyErrors    metrics.Counter
	PathsProgrammed metrics.Counter
}

// Engine drives add, get and del operations on uSID policies.
type Engine struct {
	Directory  DirectoryLoader
	Programmer fwdengine.Programmer
	Store      PolicyStore
	Metrics    Metrics
}

// AddPolicy installs a bidirectional uSID policy and persists it. The
// returned status is StatusSuccess only if both directions were programmed
// and the policy was stored. If the forward direction was programmed but the
// reverse direction failed, no rollback is attempted and the status is
// StatusPartiallyProgrammed.
func (e *Engine) AddPolicy(ctx context.Context, p srv6.UsidPolicy) (srv6.StatusCode, error) {
	logger := log.FromCtx(ctx)
	if err := validatePolicy(&p); err != nil {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusBadRequest, err
	}
	existing, err := e.Store.Match(ctx, srv6.PolicyFilter{
		LRDestination: p.LRDestination,
		RLDestination: p.RLDestination,
		Table:         p.Table,
		Metric:        p.Metric,
	})
	if err != nil {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusInternalError, serrors.Wrap("querying policy store", err)
	}
	if len(existing) > 0 {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusFileExists, serrors.Join(ErrPolicyExists, nil,
			"lr_destination", p.LRDestination, "rl_destination", p.RLDestination)
	}
	dir, lr, rl, err := e.resolve(p)
	if err != nil {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusInternalError, err
	}

	// Forward direction first. The reverse direction is only attempted once
	// the forward one is in place; a reverse failure leaves the forward
	// state installed and is reported as a partial programming.
	if code, err := e.programPath(ctx, srv6.OpAdd, dir, lr, rl, p.LRDestination,
		p.Table, p.Metric); err != nil {

		metrics.CounterInc(e.Metrics.PolicyErrors)
		return code, serrors.Wrap("programming left-to-right path", err)
	}
	if code, err := e.programPath(ctx, srv6.OpAdd, dir, rl, lr, p.RLDestination,
		p.Table, p.Metric); err != nil {

		metrics.CounterInc(e.Metrics.PolicyErrors)
		logger.Error("Right-to-left path failed, left-to-right path stays installed",
			"err", err, "status", code)
		return srv6.StatusPartiallyProgrammed,
			serrors.Wrap("programming right-to-left path", err, "status", code)
	}
	id, err := e.Store.Insert(ctx, p)
	if err != nil {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusInternalError,
			serrors.Wrap("persisting policy, forwarding state stays installed", err)
	}
	metrics.CounterInc(e.Metrics.PoliciesAdded)
	logger.Info("Installed uSID policy", "id", id,
		"lr_destination", p.LRDestination, "rl_destination", p.RLDestination)
	return srv6.StatusSuccess, nil
}

// GetPolicies returns the stored policies matching the filter. No waypoint
// resolution is performed: the result reflects the store, not the current
// directory contents.
func (e *Engine) GetPolicies(ctx context.Context,
	f srv6.PolicyFilter) ([]srv6.UsidPolicy, error) {

	return e.Store.Match(ctx, f)
}

// DelPolicy removes every stored policy matching the filter, uninstalling
// both directions from the nodes before dropping the record. The waypoints
// are re-resolved against the current directory.
func (e *Engine) DelPolicy(ctx context.Context, f srv6.PolicyFilter) (srv6.StatusCode, error) {
	logger := log.FromCtx(ctx)
	policies, err := e.Store.Match(ctx, f)
	if err != nil {
		metrics.CounterInc(e.Metrics.PolicyErrors)
		return srv6.StatusInternalError, serrors.Wrap("querying policy store", err)
	}
	if len(policies) == 0 {
		return srv6.StatusPolicyNotFound, ErrPolicyNotFound
	}
	for _, p := range policies {
		if err := validatePolicy(&p); err != nil {
			metrics.CounterInc(e.Metrics.PolicyErrors)
			return srv6.StatusInternalError, serrors.Wrap("stored policy invalid", err, "id", p.ID)
		}
		dir, lr, rl, err := e.resolve(p)
		if err != nil {
			metrics.CounterInc(e.Metrics.PolicyErrors)
			return srv6.StatusInternalError, serrors.Wrap("resolving policy", err, "id", p.ID)
		}
		if code, err := e.programPath(ctx, srv6.OpDel, dir, lr, rl, p.LRDestination,
			p.Table, p.Metric); err != nil {

			metrics.CounterInc(e.Metrics.PolicyErrors)
			return code, serrors.Wrap("removing left-to-right path", err, "id", p.ID)
		}
		if code, err := e.programPath(ctx, srv6.OpDel, dir, rl, lr, p.RLDestination,
			p.Table, p.Metric); err != nil {

			metrics.CounterInc(e.Metrics.PolicyErrors)
			return srv6.StatusPartiallyProgrammed,
				serrors.Wrap("removing right-to-left path", err, "id", p.ID, "status", code)
		}
		if _, err := e.Store.Delete(ctx, p.ID); err != nil {
			metrics.CounterInc(e.Metrics.PolicyErrors)
			return srv6.StatusInternalError,
				serrors.Wrap("dropping policy record, forwarding state removed", err, "id", p.ID)
		}
		metrics.CounterInc(e.Metrics.PoliciesDeleted)
		logger.Info("Removed uSID policy", "id", p.ID,
			"lr_destination", p.LRDestination, "rl_destination", p.RLDestination)
	}
	return srv6.StatusSuccess, nil
}

// ChangePolicy is not supported: a policy is replaced by deleting and
// re-adding it.
func (e *Engine) ChangePolicy(ctx context.Context,
	p srv6.UsidPolicy) (srv6.StatusCode, error) {

	return srv6.StatusOperationNotSupported,
		serrors.New("change operation is not supported on usid policies")
}

// validatePolicy checks the operator-supplied fields and fills in the
// defaults: a missing reverse waypoint list means a symmetric policy.
func validatePolicy(p *srv6.UsidPolicy) error {
	if !p.LRDestination.IsValid() || !p.RLDestination.IsValid() {
		return serrors.New("both destinations are mandatory")
	}
	if len(p.NodesLR) < 2 {
		return serrors.New("at least two waypoints are required",
			"nodes_lr", p.NodesLR)
	}
	if len(p.NodesRL) == 0 {
		p.NodesRL = p.ReversedNodesLR()
	}
	if !p.SymmetricEndpoints() {
		return serrors.Join(ErrBadEndpoints, nil,
			"nodes_lr", p.NodesLR, "nodes_rl", p.NodesRL)
	}
	return nil
}

// resolve loads the directory and maps both waypoint lists to node records.
// The endpoint bindings swap roles between the two directions: the left
// binding describes the first node of the forward path and the last node of
// the reverse path.
func (e *Engine) resolve(p srv6.UsidPolicy) (*nodedir.Directory,
	[]nodedir.NodeRecord, []nodedir.NodeRecord, error) {

	dir, err := e.Directory.Load()
	if err != nil {
		return nil, nil, nil, serrors.Wrap("loading node directory", err)
	}
	left := binding(p.LGRPCAddr, p.LGRPCPort, p.LFwdEngine)
	right := binding(p.RGRPCAddr, p.RGRPCPort, p.RFwdEngine)
	lr, err := dir.ResolveWaypoints(nodedir.WaypointQuery{
		Tokens:   p.NodesLR,
		Left:     left,
		Right:    right,
		DecapSID: p.DecapSID,
		Locator:  p.Locator,
	})
	if err != nil {
		return nil, nil, nil, serrors.Wrap("resolving left-to-right waypoints", err)
	}
	rl, err := dir.ResolveWaypoints(nodedir.WaypointQuery{
		Tokens:   p.NodesRL,
		Left:     right,
		Right:    left,
		DecapSID: p.DecapSID,
		Locator:  p.Locator,
	})
	if err != nil {
		return nil, nil, nil, serrors.Wrap("resolving right-to-left waypoints", err)
	}
	return dir, lr, rl, nil
}

func binding(addr netip.Addr, port int, engine srv6.FwdEngine) *nodedir.Binding {
	if !addr.IsValid() && port == 0 && engine == srv6.FwdEngineUnspec {
		return nil
	}
	return &nodedir.Binding{GRPCAddr: addr, GRPCPort: port, FwdEngine: engine}
}

// programPath installs or removes one direction of the tunnel on its ingress
// node. The SID list is built from the resolved uN SIDs, the decap SID pair
// of the egress node is appended, and the whole list is compressed into
// micro-segments before it is shipped. The egress node of this direction is
// the ingress of the reverse one, so its record is taken from the reverse
// list head.
func (e *Engine) programPath(ctx context.Context, op srv6.Op, dir *nodedir.Directory,
	nodes, reverse []nodedir.NodeRecord, dst netip.Prefix,
	table, metric int) (srv6.StatusCode, error) {

	ingress, egress := nodes[0], reverse[0]
	if !ingress.FwdEngine.SupportsEncap() {
		return srv6.StatusOperationNotSupported,
			serrors.New("encap operation is not supported",
				"node", ingress.Name, "fwd_engine", ingress.FwdEngine)
	}
	if !egress.UDT.IsValid() {
		return srv6.StatusBadRequest,
			serrors.New("egress node has no decap sid", "node", egress.Name)
	}
	segments := make([]netip.Addr, 0, len(nodes))
	for _, n := range nodes {
		segments = append(segments, n.UN)
	}
	trailing := append([]netip.Addr{segments[len(segments)-1]},
		usid.DecapSIDs(egress.UDT, dir.BitWidth)...)
	usidList, err := usid.CompressList(segments[1:len(segments)-1], trailing, dir.BitWidth)
	if err != nil {
		return srv6.StatusInternalError, serrors.Wrap("compressing sid list", err)
	}
	var bsid string
	if ingress.FwdEngine == srv6.FwdEngineVPP {
		bsid = srv6.GenerateBSIDAddr(dst.String())
	}
	req := srv6.PathRequest{
		Op:          op,
		Destination: dst,
		Segments:    usidList,
		EncapMode:   srv6.EncapModeEncapRed,
		Table:       table,
		Metric:      metric,
		BSIDAddr:    bsid,
		FwdEngine:   ingress.FwdEngine,
	}
	if err := req.Validate(); err != nil {
		return srv6.StatusBadRequest, err
	}
	code, err := e.Programmer.ProgramPath(ctx,
		fwdengine.Endpoint{Addr: ingress.GRPCAddr, Port: ingress.GRPCPort}, req)
	if err != nil {
		return code, err
	}
	metrics.CounterInc(e.Metrics.PathsProgrammed)
	return code, nil
}
