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

// Package grpc contains the gRPC dialing plumbing shared by the controller
// clients. Node managers expose a plaintext gRPC endpoint on the management
// network; dialing is hidden behind the Dialer interface so that tests can
// inject in-process connections.
package grpc

import (
	"context"
	"net"
	"strconv"
	"time"

	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dialer creates a gRPC client connection to the given target.
type Dialer interface {
	// Dial creates a client connection to the given target.
	Dial(ctx context.Context, host string, port int) (*grpc.ClientConn, error)
}

// TCPDialer dials a gRPC connection over TCP to a node manager endpoint.
type TCPDialer struct{}

// Dial dials the node manager listening on host:port.
func (TCPDialer) Dial(ctx context.Context, host string, port int) (*grpc.ClientConn, error) {
	target := net.JoinHostPort(host, strconv.Itoa(port))
	return grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpc_retry.UnaryClientInterceptor()),
		grpc.WithStreamInterceptor(grpc_retry.StreamClientInterceptor()),
	)
}

// RetryOption limits the time spent on a single retry attempt.
var RetryOption grpc.CallOption = grpc_retry.WithPerRetryTimeout(3 * time.Second)

// RetryProfile is the common retry profile for RPCs.
var RetryProfile = []grpc.CallOption{
	RetryOption,
}
