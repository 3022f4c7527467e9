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

package nodedir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netgroup/srv6-controller/pkg/private/xtest"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/private/nodedir"
)

const sampleNodes = `
nodes:
  r1:
    grpc_ip: fcff:1::1
    grpc_port: 12345
    uN: "fcbb:bb00:100::"
    uDT: "fcbb:bb00:1:11::"
    fwd_engine: Linux
  r2:
    grpc_ip: fcff:2::1
    grpc_port: 12345
    uN: "fcbb:bb00:200::"
    fwd_engine: P4
  r8:
    grpc_ip: fcff:8::1
    grpc_port: 12345
    uN: "fcbb:bb00:800::"
    uDT: "fcbb:bb00:8:88::"
    fwd_engine: VPP
`

func TestParse(t *testing.T) {
	d, err := nodedir.Parse([]byte(sampleNodes))
	require.NoError(t, err)

	assert.Equal(t, 32, d.BitWidth.LocatorBits)
	assert.Equal(t, 16, d.BitWidth.IDBits)
	assert.Equal(t, []string{"r1", "r2", "r8"}, d.Names())

	r1 := d.Nodes["r1"]
	assert.Equal(t, "r1", r1.Name)
	assert.Equal(t, xtest.MustParseAddr("fcff:1::1"), r1.GRPCAddr)
	assert.Equal(t, 12345, r1.GRPCPort)
	assert.Equal(t, xtest.MustParseAddr("fcbb:bb00:100::"), r1.UN)
	assert.Equal(t, xtest.MustParseAddr("fcbb:bb00:1:11::"), r1.UDT)
	assert.Equal(t, srv6.FwdEngineLinux, r1.FwdEngine)
	assert.True(t, r1.HasEndpoint())
	assert.Equal(t, xtest.MustParseAddr("fcbb:bb00::"), r1.Locator(d.BitWidth))

	r2 := d.Nodes["r2"]
	assert.False(t, r2.UDT.IsValid())
	assert.Equal(t, srv6.FwdEngineP4, r2.FwdEngine)
}

func TestParseBitWidths(t *testing.T) {
	d, err := nodedir.Parse([]byte(`
locator_bits: 16
usid_id_bits: 16
nodes:
  r1:
    grpc_ip: fcff:1::1
    grpc_port: 12345
    uN: "fcff:1::"
    fwd_engine: Linux
`))
	require.NoError(t, err)
	assert.Equal(t, 16, d.BitWidth.LocatorBits)
	assert.Equal(t, 16, d.BitWidth.IDBits)
}

func TestParseErrors(t *testing.T) {
	testCases := map[string]string{
		"not yaml":    `[`,
		"unknown key": `hosts: {}`,
		"bad widths": `
locator_bits: 120
usid_id_bits: 16
nodes: {}
`,
		"missing grpc_ip": `
nodes:
  r1:
    grpc_port: 12345
    uN: "fcbb:bb00:100::"
    fwd_engine: Linux
`,
		"ipv4 grpc_ip": `
nodes:
  r1:
    grpc_ip: 10.0.0.1
    grpc_port: 12345
    uN: "fcbb:bb00:100::"
    fwd_engine: Linux
`,
		"bad uN": `
nodes:
  r1:
    grpc_ip: fcff:1::1
    grpc_port: 12345
    uN: not-an-address
    fwd_engine: Linux
`,
		"bad uDT": `
nodes:
  r1:
    grpc_ip: fcff:1::1
    grpc_port: 12345
    uN: "fcbb:bb00:100::"
    uDT: ::ffff:10.0.0.1
    fwd_engine: Linux
`,
		"bad fwd_engine": `
nodes:
  r1:
    grpc_ip: fcff:1::1
    grpc_port: 12345
    uN: "fcbb:bb00:100::"
    fwd_engine: ovs
`,
	}
	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := nodedir.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := nodedir.LoadFile("testdata/does-not-exist.yml")
	assert.ErrorIs(t, err, nodedir.ErrInvalidConfiguration)
}
