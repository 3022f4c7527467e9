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

// Package usid implements the micro-segment (uSID) compression scheme for
// SRv6 SID lists: multiple waypoints sharing a common locator are packed into
// a single IPv6 address, one identifier per slot.
package usid

import (
	"net/netip"
	"strconv"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// The errors returned by the codec.
var (
	// ErrTooManySegments indicates that a group of SIDs does not fit into
	// one micro-segment.
	ErrTooManySegments = serrors.New("too many segments")
	// ErrSIDLocator indicates a SID whose locator differs from the locator
	// shared by the rest of the list.
	ErrSIDLocator = serrors.New("wrong SID locator")
	// ErrInvalidSID indicates a SID with non-zero bits below its identifier
	// field.
	ErrInvalidSID = serrors.New("invalid SID")
)

// Compress packs the given SIDs into a single micro-segment. All SIDs must
// carry the given locator and must have no bits set below their identifier
// field. The first SID's identifier occupies the slot immediately after the
// locator, subsequent identifiers occupy the following slots in input order.
func Compress(locator netip.Addr, sids []netip.Addr, cfg BitWidthConfig) (netip.Addr, error) {
	if len(sids) > cfg.Capacity() {
		return netip.Addr{}, serrors.Join(ErrTooManySegments, nil,
			"segments", len(sids), "capacity", cfg.Capacity())
	}
	locMask := fromAddr(cfg.LocatorMask())
	idMask := cfg.idMask(0)
	tailMask := ones(uint(128 - cfg.LocatorBits - cfg.IDBits))
	loc := fromAddr(locator)

	out := loc
	offset := uint(0)
	for _, sid := range sids {
		v := fromAddr(sid)
		if v.and(locMask) != loc.and(locMask) {
			return netip.Addr{}, serrors.Join(ErrSIDLocator, nil,
				"sid", sid, "locator", locator)
		}
		if !v.and(tailMask).isZero() {
			return netip.Addr{}, serrors.Join(ErrInvalidSID, nil,
				"sid", sid, "reason", "final bits should be zero")
		}
		out = out.or(v.and(idMask).shr(offset))
		offset += uint(cfg.IDBits)
	}
	return out.addr(), nil
}

// Identifiers decodes a micro-segment back into its identifier slots, in
// packing order. Trailing all-zero slots mark the end of the list and are
// not returned, so Identifiers(Compress(locator, sids)) yields one
// identifier per input SID as long as no input identifier is zero.
func Identifiers(segment netip.Addr, cfg BitWidthConfig) []uint64 {
	v := fromAddr(segment)
	ids := make([]uint64, 0, cfg.Capacity())
	for slot := 0; slot < cfg.Capacity(); slot++ {
		id := v.and(cfg.idMask(slot)).shr(cfg.idShift() - uint(slot*cfg.IDBits)).lo
		ids = append(ids, id)
	}
	for len(ids) > 0 && ids[len(ids)-1] == 0 {
		ids = ids[:len(ids)-1]
	}
	return ids
}

// SIDLocator extracts the locator shared by all SIDs in the list. It fails
// with ErrSIDLocator if any SID's locator differs from the first one.
func SIDLocator(sids []netip.Addr, cfg BitWidthConfig) (netip.Addr, error) {
	if len(sids) == 0 {
		return netip.Addr{}, serrors.New("empty SID list")
	}
	locMask := fromAddr(cfg.LocatorMask())
	locator := fromAddr(sids[0]).and(locMask)
	for _, sid := range sids[1:] {
		if fromAddr(sid).and(locMask) != locator {
			return netip.Addr{}, serrors.Join(ErrSIDLocator, nil, "sid", sid)
		}
	}
	return locator.addr(), nil
}

// ParseID parses a bare uSID identifier, a hex string such as "0200". The
// second return value reports whether the token is a valid identifier for
// the configured identifier width.
func ParseID(token string, cfg BitWidthConfig) (uint64, bool) {
	id, err := strconv.ParseUint(token, 16, 64)
	if err != nil {
		return 0, false
	}
	if cfg.IDBits < 64 && id > (uint64(1)<<uint(cfg.IDBits))-1 {
		return 0, false
	}
	return id, true
}

// IDToSID expands a bare uSID identifier into a full SID under the given
// locator: the identifier is placed in the first slot after the locator.
func IDToSID(id uint64, locator netip.Addr, cfg BitWidthConfig) netip.Addr {
	return fromAddr(locator).or(uint128{lo: id}.shl(cfg.idShift())).addr()
}

// DecapSIDs splits a uDT SID into the pair of sub-identifier SIDs appended
// as the trailing entries of a compressed list: the uDT's first-slot
// identifier, and its second-slot identifier promoted to the first slot.
// Folding the decap instruction into the list this way avoids a separate
// route on the egress node.
func DecapSIDs(udt netip.Addr, cfg BitWidthConfig) []netip.Addr {
	v := fromAddr(udt)
	loc := v.and(fromAddr(cfg.LocatorMask()))
	first := v.and(cfg.idMask(0))
	second := v.and(cfg.idMask(1))
	return []netip.Addr{
		loc.or(first).addr(),
		loc.or(second.shl(uint(cfg.IDBits))).addr(),
	}
}
