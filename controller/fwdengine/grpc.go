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

package fwdengine

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cgrpc "github.com/netgroup/srv6-controller/pkg/grpc"
	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
)

// ManagerClient is the RPC surface of a node manager's SRv6 service,
// expressed over the domain types. The adapter that translates to and from
// the generated protobuf messages satisfies this interface on top of a
// client connection.
type ManagerClient interface {
	ProgramPath(ctx context.Context, req srv6.PathRequest) (srv6.StatusCode, error)
	ProgramBehavior(ctx context.Context, req srv6.BehaviorRequest) (srv6.StatusCode, error)
}

// ManagerClientFactory constructs the RPC client bound to a connection. It
// is installed by the package carrying the generated protobuf bindings.
// Without it, operations that reach a node fail with StatusNotConfigured.
var ManagerClientFactory func(conn *grpc.ClientConn) ManagerClient

// GRPC programs nodes by dialing their node manager and delegating each
// request to a ManagerClient bound to that connection.
type GRPC struct {
	// Dialer opens the connection to the node manager.
	Dialer cgrpc.Dialer
	// NewClient constructs the RPC client on a fresh connection.
	NewClient func(conn *grpc.ClientConn) ManagerClient
}

func (p *GRPC) ProgramPath(ctx context.Context, node Endpoint,
	req srv6.PathRequest) (srv6.StatusCode, error) {

	client, closeFn, err := p.connect(ctx, node)
	if err != nil {
		return connectStatus(err),
			serrors.Wrap("connecting to node manager", err, "node", node.Addr)
	}
	defer closeFn()

	code, err := client.ProgramPath(ctx, req)
	if err != nil {
		return statusFromError(err),
			serrors.Wrap("programming path", err, "node", node.Addr, "op", req.Op)
	}
	if code != srv6.StatusSuccess {
		return code, serrors.New("path rejected by node manager",
			"node", node.Addr, "op", req.Op, "status", code)
	}
	return srv6.StatusSuccess, nil
}

func (p *GRPC) ProgramBehavior(ctx context.Context, node Endpoint,
	req srv6.BehaviorRequest) (srv6.StatusCode, error) {

	client, closeFn, err := p.connect(ctx, node)
	if err != nil {
		return connectStatus(err),
			serrors.Wrap("connecting to node manager", err, "node", node.Addr)
	}
	defer closeFn()

	code, err := client.ProgramBehavior(ctx, req)
	if err != nil {
		return statusFromError(err),
			serrors.Wrap("programming behavior", err,
				"node", node.Addr, "op", req.Op, "action", req.Action)
	}
	if code != srv6.StatusSuccess {
		return code, serrors.New("behavior rejected by node manager",
			"node", node.Addr, "op", req.Op, "status", code)
	}
	return srv6.StatusSuccess, nil
}

func (p *GRPC) connect(ctx context.Context,
	node Endpoint) (ManagerClient, func(), error) {

	if p.NewClient == nil {
		return nil, nil, errNotConfigured
	}
	conn, err := p.Dialer.Dial(ctx, node.Addr.String(), node.Port)
	if err != nil {
		return nil, nil, err
	}
	return p.NewClient(conn), func() { _ = conn.Close() }, nil
}

var errNotConfigured = serrors.New("node manager client not registered")

func connectStatus(err error) srv6.StatusCode {
	if errors.Is(err, errNotConfigured) {
		return srv6.StatusNotConfigured
	}
	return srv6.StatusServiceUnavailable
}

// statusFromError maps a transport-level RPC failure to the status the
// caller reports. Anything that is not clearly an availability or
// authorization problem counts as an internal error.
func statusFromError(err error) srv6.StatusCode {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return srv6.StatusServiceUnavailable
	case codes.Unauthenticated, codes.PermissionDenied:
		return srv6.StatusUnauthorized
	default:
		return srv6.StatusInternalError
	}
}
