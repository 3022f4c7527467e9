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

package srv6_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netgroup/srv6-controller/pkg/private/xtest"
	"github.com/netgroup/srv6-controller/pkg/srv6"
)

func TestParseFwdEngine(t *testing.T) {
	for in, want := range map[string]srv6.FwdEngine{
		"Linux": srv6.FwdEngineLinux,
		"linux": srv6.FwdEngineLinux,
		"VPP":   srv6.FwdEngineVPP,
		"p4":    srv6.FwdEngineP4,
	} {
		got, err := srv6.ParseFwdEngine(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := srv6.ParseFwdEngine("ovs")
	assert.Error(t, err)
}

func TestSupportsEncap(t *testing.T) {
	assert.True(t, srv6.FwdEngineLinux.SupportsEncap())
	assert.True(t, srv6.FwdEngineVPP.SupportsEncap())
	assert.False(t, srv6.FwdEngineP4.SupportsEncap())
	assert.False(t, srv6.FwdEngineUnspec.SupportsEncap())
}

func TestParseOp(t *testing.T) {
	for in, want := range map[string]srv6.Op{
		"add":    srv6.OpAdd,
		"get":    srv6.OpGet,
		"change": srv6.OpChange,
		"del":    srv6.OpDel,
	} {
		got, err := srv6.ParseOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, in, got.String())
	}
	_, err := srv6.ParseOp("update")
	assert.Error(t, err)
}

func TestPathRequestValidate(t *testing.T) {
	valid := srv6.PathRequest{
		Op:          srv6.OpAdd,
		Destination: xtest.MustParsePrefix("fd00:0:83::/48"),
		Segments:    []netip.Addr{xtest.MustParseAddr("fcbb:bb00:200:300::")},
		EncapMode:   srv6.EncapModeEncapRed,
		Table:       srv6.UnsetTableMetric,
		Metric:      srv6.UnsetTableMetric,
		FwdEngine:   srv6.FwdEngineLinux,
	}
	assert.NoError(t, valid.Validate())

	noDst := valid
	noDst.Destination = netip.Prefix{}
	assert.Error(t, noDst.Validate())

	noSegments := valid
	noSegments.Segments = nil
	assert.Error(t, noSegments.Validate())

	delNoSegments := noSegments
	delNoSegments.Op = srv6.OpDel
	assert.NoError(t, delNoSegments.Validate())

	badMode := valid
	badMode.EncapMode = srv6.EncapMode("tunnel")
	assert.Error(t, badMode.Validate())

	vppNoBSID := valid
	vppNoBSID.FwdEngine = srv6.FwdEngineVPP
	assert.Error(t, vppNoBSID.Validate())

	vppNoBSID.BSIDAddr = srv6.GenerateBSIDAddr("fd00:0:83::/48")
	assert.NoError(t, vppNoBSID.Validate())
}

func TestGenerateBSIDAddr(t *testing.T) {
	testCases := map[string]struct {
		destination string
		want        string
	}{
		"short": {
			destination: "fd00:0:83::",
			want:        "fd83::",
		},
		"grouped": {
			destination: "fcbb:bb00:100::",
			want:        "fcbb:bb1::",
		},
		"boundary, 28 stripped characters": {
			destination: "1111:2222:3333:4444:5555:6666:7777:0",
			want:        "1111:2222:3333:4444:5555:6666:7777::",
		},
		"no trailing compression": {
			destination: "1111:2222:3333:4444:5555:6666:7777:8888",
			want:        "1111:2222:3333:4444:5555:6666:7777:8888",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, srv6.GenerateBSIDAddr(tc.destination))
		})
	}
}

func TestSymmetricEndpoints(t *testing.T) {
	p := srv6.UsidPolicy{
		NodesLR: []string{"r1", "r2", "r8"},
		NodesRL: []string{"r8", "r7", "r1"},
	}
	assert.True(t, p.SymmetricEndpoints())

	p.NodesRL = []string{"r8", "r7", "r2"}
	assert.False(t, p.SymmetricEndpoints())

	p.NodesRL = nil
	assert.False(t, p.SymmetricEndpoints())
}

func TestReversedNodesLR(t *testing.T) {
	p := srv6.UsidPolicy{NodesLR: []string{"r1", "r2", "r8"}}
	assert.Equal(t, []string{"r8", "r2", "r1"}, p.ReversedNodesLR())
	// The original list is untouched.
	assert.Equal(t, []string{"r1", "r2", "r8"}, p.NodesLR)
}

func TestStatusCodeString(t *testing.T) {
	assert.Equal(t, "Success", srv6.StatusSuccess.String())
	assert.Equal(t, "Operation not supported",
		srv6.StatusOperationNotSupported.String())
	assert.Equal(t, "Policy not found", srv6.StatusPolicyNotFound.String())
	assert.Equal(t, "Unknown status", srv6.StatusCode(999).String())
}
