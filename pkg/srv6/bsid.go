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

package srv6

import (
	"strings"
)

// GenerateBSIDAddr derives the binding SID required by VPP's SR policy
// abstraction from the destination prefix of the path. The transform is a
// deterministic, order-preserving reshuffle of the destination's hex digits:
// all '0' and ':' characters are dropped, the remaining digits are grouped in
// fours joined by ':', and a trailing "::" is appended when the stripped form
// is 28 characters or fewer. It is part of the observable protocol towards
// the VPP node manager and must not be changed.
//
// Note that the transform is not injective: e.g. "fcff:1::" and "fcff::1"
// map to the same binding SID. Colliding destinations on one VPP node are
// not supported.
func GenerateBSIDAddr(destination string) string {
	var stripped strings.Builder
	for _, char := range destination {
		if char != '0' && char != ':' {
			stripped.WriteRune(char)
		}
	}
	s := stripped.String()
	addColon := len(s) <= 28

	var groups []string
	for i := 0; i < len(s); i += 4 {
		groups = append(groups, s[i:min(i+4, len(s))])
	}
	bsid := strings.Join(groups, ":")
	if addColon {
		bsid += "::"
	}
	return bsid
}
