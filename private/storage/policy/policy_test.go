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

package policy_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netgroup/srv6-controller/pkg/private/xtest"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/private/storage/policy"
)

func testDB(t *testing.T) *policy.DB {
	t.Helper()
	db, err := policy.New(filepath.Join(t.TempDir(), "policies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testPolicy() srv6.UsidPolicy {
	return srv6.UsidPolicy{
		LRDestination: xtest.MustParsePrefix("fd00:0:83::/48"),
		RLDestination: xtest.MustParsePrefix("fd00:0:13::/48"),
		NodesLR:       []string{"r1", "r2", "r8"},
		NodesRL:       []string{"r8", "r2", "r1"},
		Table:         srv6.UnsetTableMetric,
		Metric:        srv6.UnsetTableMetric,
	}
}

func TestInsertMatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := testPolicy()
	id, err := db.Insert(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	second := testPolicy()
	second.LRDestination = xtest.MustParsePrefix("fd00:0:84::/48")
	second.NodesLR = []string{"r1", "r3", "r8"}
	second.NodesRL = []string{"r8", "r3", "r1"}
	id, err = db.Insert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	all, err := db.Match(ctx, srv6.MatchAllFilter())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "2", all[1].ID)
	assert.Equal(t, first.NodesLR, all[0].NodesLR)

	byDst, err := db.Match(ctx, srv6.PolicyFilter{
		LRDestination: second.LRDestination,
		Table:         srv6.UnsetTableMetric,
		Metric:        srv6.UnsetTableMetric,
	})
	require.NoError(t, err)
	require.Len(t, byDst, 1)
	assert.Equal(t, "2", byDst[0].ID)

	byNodes, err := db.Match(ctx, srv6.PolicyFilter{
		NodesLR: []string{"r1", "r2", "r8"},
		Table:   srv6.UnsetTableMetric,
		Metric:  srv6.UnsetTableMetric,
	})
	require.NoError(t, err)
	require.Len(t, byNodes, 1)
	assert.Equal(t, "1", byNodes[0].ID)

	byID, err := db.Match(ctx, srv6.PolicyFilter{
		ID:     "2",
		Table:  srv6.UnsetTableMetric,
		Metric: srv6.UnsetTableMetric,
	})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, second.NodesLR, byID[0].NodesLR)

	none, err := db.Match(ctx, srv6.PolicyFilter{
		LRDestination: xtest.MustParsePrefix("fd00:0:99::/48"),
		Table:         srv6.UnsetTableMetric,
		Metric:        srv6.UnsetTableMetric,
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	want := testPolicy()
	want.Table = 100
	want.Metric = 200
	want.LGRPCAddr = xtest.MustParseAddr("fcff:1::1")
	want.LGRPCPort = 12345
	want.LFwdEngine = srv6.FwdEngineLinux
	want.RGRPCAddr = xtest.MustParseAddr("fcff:8::1")
	want.RGRPCPort = 12345
	want.RFwdEngine = srv6.FwdEngineVPP
	want.DecapSID = "fcbb:bb00:8:88::"
	want.Locator = xtest.MustParseAddr("fcbb:bb00::")

	id, err := db.Insert(ctx, want)
	require.NoError(t, err)
	want.ID = id

	got, err := db.Match(ctx, srv6.PolicyFilter{
		ID:     id,
		Table:  srv6.UnsetTableMetric,
		Metric: srv6.UnsetTableMetric,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, testPolicy())
	require.NoError(t, err)

	n, err := db.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = db.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = db.Delete(ctx, "not-a-key")
	assert.Error(t, err)

	all, err := db.Match(ctx, srv6.MatchAllFilter())
	require.NoError(t, err)
	assert.Empty(t, all)
}
