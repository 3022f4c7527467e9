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

package usid

import (
	"net/netip"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// Default bit widths of the locator and uSID identifier parts of a SID.
const (
	DefaultLocatorBits = 32
	DefaultIDBits      = 16
)

// BitWidthConfig describes how a 128-bit SID is partitioned: the top
// LocatorBits bits carry the SID locator, followed by a sequence of
// IDBits-wide uSID identifier slots.
type BitWidthConfig struct {
	LocatorBits int
	IDBits      int
}

// DefaultBitWidth returns the 32/16 split used by standard uSID deployments
// (e.g. fcbb:bbbb locators with 16-bit identifiers).
func DefaultBitWidth() BitWidthConfig {
	return BitWidthConfig{LocatorBits: DefaultLocatorBits, IDBits: DefaultIDBits}
}

// Validate checks that both widths are in [0, 128] and that locator and one
// identifier fit into an address together.
func (c BitWidthConfig) Validate() error {
	if c.LocatorBits < 0 || c.LocatorBits > 128 {
		return serrors.New("locator bits out of range", "locator_bits", c.LocatorBits)
	}
	if c.IDBits <= 0 || c.IDBits > 128 {
		return serrors.New("usid id bits out of range", "usid_id_bits", c.IDBits)
	}
	if c.LocatorBits+c.IDBits > 128 {
		return serrors.New("locator and usid id bits exceed the address size",
			"locator_bits", c.LocatorBits, "usid_id_bits", c.IDBits)
	}
	return nil
}

// Capacity returns the number of identifier slots available in one
// micro-segment: the non-locator part of the address divided into
// IDBits-wide slots.
func (c BitWidthConfig) Capacity() int {
	return (128 - c.LocatorBits) / c.IDBits
}

// MaxSlotsPerSegment returns the number of slots usable by callers of the
// list compressor. The last slot is always reserved so that a terminating
// marker can be appended to any produced micro-segment.
func (c BitWidthConfig) MaxSlotsPerSegment() int {
	return c.Capacity() - 1
}

// LocatorMask returns the mask whose AND with a SID yields the SID locator:
// the top LocatorBits bits set.
func (c BitWidthConfig) LocatorMask() netip.Addr {
	return ones(uint(c.LocatorBits)).shl(uint(128 - c.LocatorBits)).addr()
}

// IdentifierMask returns the mask selecting the uSID identifier in the given
// slot. Slot 0 is the IDBits-wide window immediately after the locator,
// subsequent slots follow at IDBits offsets.
func (c BitWidthConfig) IdentifierMask(slot int) netip.Addr {
	return c.idMask(slot).addr()
}

func (c BitWidthConfig) idMask(slot int) uint128 {
	shift := 128 - c.LocatorBits - c.IDBits*(slot+1)
	if shift < 0 {
		return uint128{}
	}
	return ones(uint(c.IDBits)).shl(uint(shift))
}

// idShift returns by how much an identifier value must be shifted left to
// occupy slot 0.
func (c BitWidthConfig) idShift() uint {
	return uint(128 - c.LocatorBits - c.IDBits)
}
