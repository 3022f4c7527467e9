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

package fwdengine_test

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/netgroup/srv6-controller/controller/fwdengine"
	cgrpc "github.com/netgroup/srv6-controller/pkg/grpc"
	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/private/xtest"
	"github.com/netgroup/srv6-controller/pkg/srv6"
)

type fakeClient struct {
	code srv6.StatusCode
	err  error
}

func (c fakeClient) ProgramPath(ctx context.Context,
	req srv6.PathRequest) (srv6.StatusCode, error) {

	return c.code, c.err
}

func (c fakeClient) ProgramBehavior(ctx context.Context,
	req srv6.BehaviorRequest) (srv6.StatusCode, error) {

	return c.code, c.err
}

func testProgrammer(client fakeClient) *fwdengine.GRPC {
	return &fwdengine.GRPC{
		Dialer: cgrpc.TCPDialer{},
		NewClient: func(conn *grpc.ClientConn) fwdengine.ManagerClient {
			return client
		},
	}
}

func testNode() fwdengine.Endpoint {
	return fwdengine.Endpoint{Addr: xtest.MustParseAddr("fcff:1::1"), Port: 12345}
}

func testRequest() srv6.PathRequest {
	return srv6.PathRequest{
		Op:          srv6.OpAdd,
		Destination: xtest.MustParsePrefix("fd00:0:48::/48"),
		Segments:    []netip.Addr{xtest.MustParseAddr("fcbb:bb00:200:300::")},
		EncapMode:   srv6.EncapModeEncapRed,
		FwdEngine:   srv6.FwdEngineLinux,
	}
}

func TestProgramPathSuccess(t *testing.T) {
	p := testProgrammer(fakeClient{code: srv6.StatusSuccess})
	code, err := p.ProgramPath(context.Background(), testNode(), testRequest())
	assert.NoError(t, err)
	assert.Equal(t, srv6.StatusSuccess, code)
}

func TestProgramPathNotConfigured(t *testing.T) {
	p := &fwdengine.GRPC{Dialer: cgrpc.TCPDialer{}}
	code, err := p.ProgramPath(context.Background(), testNode(), testRequest())
	assert.Error(t, err)
	assert.Equal(t, srv6.StatusNotConfigured, code)
}

func TestProgramPathRejected(t *testing.T) {
	p := testProgrammer(fakeClient{code: srv6.StatusBadRequest})
	code, err := p.ProgramPath(context.Background(), testNode(), testRequest())
	assert.Error(t, err)
	assert.Equal(t, srv6.StatusBadRequest, code)
}

func TestProgramPathTransportErrors(t *testing.T) {
	testCases := map[string]struct {
		err  error
		want srv6.StatusCode
	}{
		"unavailable": {
			err:  status.Error(codes.Unavailable, "connection refused"),
			want: srv6.StatusServiceUnavailable,
		},
		"deadline exceeded": {
			err:  status.Error(codes.DeadlineExceeded, "timed out"),
			want: srv6.StatusServiceUnavailable,
		},
		"unauthenticated": {
			err:  status.Error(codes.Unauthenticated, "no credentials"),
			want: srv6.StatusUnauthorized,
		},
		"permission denied": {
			err:  status.Error(codes.PermissionDenied, "not allowed"),
			want: srv6.StatusUnauthorized,
		},
		"internal": {
			err:  status.Error(codes.Internal, "boom"),
			want: srv6.StatusInternalError,
		},
		"plain error": {
			err:  serrors.New("broken pipe"),
			want: srv6.StatusInternalError,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := testProgrammer(fakeClient{code: srv6.StatusInternalError, err: tc.err})
			code, err := p.ProgramPath(context.Background(), testNode(), testRequest())
			assert.Error(t, err)
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestProgramBehavior(t *testing.T) {
	p := testProgrammer(fakeClient{code: srv6.StatusSuccess})
	req := srv6.BehaviorRequest{
		Op:          srv6.OpAdd,
		Segment:     xtest.MustParsePrefix("fcbb:bb00:400:d46::/64"),
		Action:      srv6.ActionEndDT46,
		LookupTable: 254,
	}
	code, err := p.ProgramBehavior(context.Background(), testNode(), req)
	assert.NoError(t, err)
	assert.Equal(t, srv6.StatusSuccess, code)

	p = testProgrammer(fakeClient{
		code: srv6.StatusInternalError,
		err:  status.Error(codes.Unavailable, "connection refused"),
	})
	code, err = p.ProgramBehavior(context.Background(), testNode(), req)
	assert.Error(t, err)
	assert.Equal(t, srv6.StatusServiceUnavailable, code)
}
