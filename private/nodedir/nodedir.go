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

// Package nodedir reads and queries the node directory: the YAML document
// describing the SRv6-capable nodes of the domain, their uN and uDT SIDs,
// their node manager endpoints and the locator/identifier bit widths in use.
package nodedir

import (
	"net/netip"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/pkg/usid"
)

// The error classes reported by the directory.
var (
	// ErrInvalidConfiguration indicates a malformed or inconsistent node
	// directory document.
	ErrInvalidConfiguration = serrors.New("invalid nodes configuration")
	// ErrNodeNotFound indicates a waypoint token that is neither a known
	// node name, an IPv6 literal, nor a valid uSID identifier.
	ErrNodeNotFound = serrors.New("node not found")
	// ErrMandatoryField indicates a missing endpoint parameter for a path
	// endpoint that is not described in the directory.
	ErrMandatoryField = serrors.New("mandatory field missing")
)

// NodeRecord describes one SRv6-capable node.
type NodeRecord struct {
	Name string
	// GRPCAddr and GRPCPort locate the node manager. They are zero for
	// intermediate waypoints, which are not programmed directly.
	GRPCAddr netip.Addr
	GRPCPort int
	// UN is the node's uN SID.
	UN netip.Addr
	// UDT is the node's decap SID, zero if none is known.
	UDT       netip.Addr
	FwdEngine srv6.FwdEngine
}

// HasEndpoint reports whether the record carries a node manager endpoint.
func (n NodeRecord) HasEndpoint() bool {
	return n.GRPCAddr.IsValid()
}

// Locator returns the node's SID locator under the given bit widths.
func (n NodeRecord) Locator(cfg usid.BitWidthConfig) netip.Addr {
	loc, err := usid.SIDLocator([]netip.Addr{n.UN}, cfg)
	if err != nil {
		// Unreachable, a single-element list always has a locator.
		panic(err)
	}
	return loc
}

// Directory is the parsed node directory.
type Directory struct {
	Nodes    map[string]NodeRecord
	BitWidth usid.BitWidthConfig
}

type fileNode struct {
	Name      string `yaml:"name"`
	GRPCIP    string `yaml:"grpc_ip"`
	GRPCPort  int    `yaml:"grpc_port"`
	UN        string `yaml:"uN"`
	UDT       string `yaml:"uDT"`
	FwdEngine string `yaml:"fwd_engine"`
}

type fileFormat struct {
	LocatorBits *int                `yaml:"locator_bits"`
	USIDIDBits  *int                `yaml:"usid_id_bits"`
	Nodes       map[string]fileNode `yaml:"nodes"`
}

// LoadFile reads and parses the node directory at the given path.
func LoadFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Join(ErrInvalidConfiguration, err, "file", path)
	}
	d, err := Parse(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing nodes configuration", err, "file", path)
	}
	return d, nil
}

// Parse parses and validates a node directory document. Addresses are
// normalized to their canonical lower-case form.
func Parse(raw []byte) (*Directory, error) {
	var f fileFormat
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, serrors.Join(ErrInvalidConfiguration, err)
	}
	bw := usid.DefaultBitWidth()
	if f.LocatorBits != nil {
		bw.LocatorBits = *f.LocatorBits
	}
	if f.USIDIDBits != nil {
		bw.IDBits = *f.USIDIDBits
	}
	if err := bw.Validate(); err != nil {
		return nil, serrors.Join(ErrInvalidConfiguration, err)
	}
	d := &Directory{
		Nodes:    make(map[string]NodeRecord, len(f.Nodes)),
		BitWidth: bw,
	}
	for name, node := range f.Nodes {
		if node.Name != "" {
			name = node.Name
		}
		grpcAddr, err := parseIPv6(node.GRPCIP)
		if err != nil {
			return nil, serrors.Join(ErrInvalidConfiguration, err,
				"node", name, "grpc_ip", node.GRPCIP)
		}
		un, err := parseIPv6(node.UN)
		if err != nil {
			return nil, serrors.Join(ErrInvalidConfiguration, err,
				"node", name, "uN", node.UN)
		}
		var udt netip.Addr
		if node.UDT != "" {
			if udt, err = parseIPv6(node.UDT); err != nil {
				return nil, serrors.Join(ErrInvalidConfiguration, err,
					"node", name, "uDT", node.UDT)
			}
		}
		engine, err := srv6.ParseFwdEngine(node.FwdEngine)
		if err != nil {
			return nil, serrors.Join(ErrInvalidConfiguration, err, "node", name)
		}
		d.Nodes[name] = NodeRecord{
			Name:      name,
			GRPCAddr:  grpcAddr,
			GRPCPort:  node.GRPCPort,
			UN:        un,
			UDT:       udt,
			FwdEngine: engine,
		}
	}
	return d, nil
}

// Names returns the sorted names of the nodes in the directory.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.Nodes))
	for name := range d.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseIPv6(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, serrors.New("invalid IPv6 address", "address", s)
	}
	if !a.Is6() || a.Is4In6() {
		return netip.Addr{}, serrors.New("not an IPv6 address", "address", s)
	}
	return a, nil
}
