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

func TestParseBehaviorAction(t *testing.T) {
	for _, name := range []string{
		"End", "End.X", "End.T", "End.DX2", "End.DX4", "End.DX6",
		"End.DT4", "End.DT6", "End.DT46", "End.B6", "End.B6.Encaps", "uN",
	} {
		action, err := srv6.ParseBehaviorAction(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, action.String())
	}
	_, err := srv6.ParseBehaviorAction("End.DT5")
	assert.Error(t, err)
}

func TestBehaviorRequestValidate(t *testing.T) {
	segment := xtest.MustParsePrefix("fcbb:bb00:800:d46::/64")
	testCases := map[string]struct {
		request   srv6.BehaviorRequest
		assertErr assert.ErrorAssertionFunc
	}{
		"end": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEnd,
			},
			assertErr: assert.NoError,
		},
		"no segment": {
			request: srv6.BehaviorRequest{
				Op:     srv6.OpAdd,
				Action: srv6.ActionEnd,
			},
			assertErr: assert.Error,
		},
		"no action on add": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
			},
			assertErr: assert.Error,
		},
		"no action on del": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpDel,
				Segment: segment,
			},
			assertErr: assert.NoError,
		},
		"end.x without nexthop": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEndX,
			},
			assertErr: assert.Error,
		},
		"end.dx6 with nexthop": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEndDX6,
				Nexthop: xtest.MustParseAddr("fcff:2::1"),
			},
			assertErr: assert.NoError,
		},
		"end.dt6 without lookup table": {
			request: srv6.BehaviorRequest{
				Op:          srv6.OpAdd,
				Segment:     segment,
				Action:      srv6.ActionEndDT6,
				LookupTable: srv6.UnsetTableMetric,
			},
			assertErr: assert.Error,
		},
		"end.dt6 with lookup table": {
			request: srv6.BehaviorRequest{
				Op:          srv6.OpAdd,
				Segment:     segment,
				Action:      srv6.ActionEndDT6,
				LookupTable: 254,
			},
			assertErr: assert.NoError,
		},
		"end.dx2 without interface": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEndDX2,
			},
			assertErr: assert.Error,
		},
		"end.b6 without segments": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEndB6,
			},
			assertErr: assert.Error,
		},
		"end.b6.encaps with segments": {
			request: srv6.BehaviorRequest{
				Op:      srv6.OpAdd,
				Segment: segment,
				Action:  srv6.ActionEndB6Encaps,
				Segments: []netip.Addr{
					xtest.MustParseAddr("fcbb:bb00:200::"),
				},
			},
			assertErr: assert.NoError,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.assertErr(t, tc.request.Validate())
		})
	}
}
