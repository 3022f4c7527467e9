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
	"encoding/binary"
	"net/netip"
)

// uint128 is an IPv6 address viewed as a 128-bit unsigned integer. All the
// uSID packing is plain bit arithmetic on this representation.
type uint128 struct {
	hi, lo uint64
}

func fromAddr(a netip.Addr) uint128 {
	b := a.As16()
	return uint128{
		hi: binary.BigEndian.Uint64(b[0:8]),
		lo: binary.BigEndian.Uint64(b[8:16]),
	}
}

func (v uint128) addr() netip.Addr {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], v.hi)
	binary.BigEndian.PutUint64(b[8:16], v.lo)
	return netip.AddrFrom16(b)
}

func (v uint128) and(o uint128) uint128 {
	return uint128{hi: v.hi & o.hi, lo: v.lo & o.lo}
}

func (v uint128) or(o uint128) uint128 {
	return uint128{hi: v.hi | o.hi, lo: v.lo | o.lo}
}

func (v uint128) isZero() bool {
	return v.hi == 0 && v.lo == 0
}

func (v uint128) shl(n uint) uint128 {
	switch {
	case n == 0:
		return v
	case n >= 128:
		return uint128{}
	case n >= 64:
		return uint128{hi: v.lo << (n - 64)}
	default:
		return uint128{hi: v.hi<<n | v.lo>>(64-n), lo: v.lo << n}
	}
}

func (v uint128) shr(n uint) uint128 {
	switch {
	case n == 0:
		return v
	case n >= 128:
		return uint128{}
	case n >= 64:
		return uint128{lo: v.hi >> (n - 64)}
	default:
		return uint128{hi: v.hi >> n, lo: v.lo>>n | v.hi<<(64-n)}
	}
}

// ones returns a uint128 with the n least significant bits set.
func ones(n uint) uint128 {
	return uint128{hi: ^uint64(0), lo: ^uint64(0)}.shr(128 - n)
}
