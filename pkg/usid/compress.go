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
)

// CompressList converts a SID list of any length into a micro-segment list.
// SIDs are consumed in groups of MaxSlotsPerSegment, keeping the last slot of
// every produced micro-segment free. The trailing SIDs (typically the decap
// identifier pair produced by DecapSIDs) are never split across
// micro-segments: they are merged into the final group once the remaining
// SIDs fit together with them, and may use the reserved slot of that last
// micro-segment.
func CompressList(sids, trailing []netip.Addr, cfg BitWidthConfig) ([]netip.Addr, error) {
	all := make([]netip.Addr, 0, len(sids)+len(trailing))
	all = append(all, sids...)
	all = append(all, trailing...)
	locator, err := SIDLocator(all, cfg)
	if err != nil {
		return nil, err
	}
	groupSize := cfg.MaxSlotsPerSegment()

	var out []netip.Addr
	for len(sids)+len(trailing) > 0 {
		group := sids[:min(groupSize, len(sids))]
		if len(sids)+len(trailing) <= groupSize || len(sids) == 0 {
			group = append(group[:len(group):len(group)], trailing...)
			trailing = nil
		}
		usid, err := Compress(locator, group, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, usid)
		sids = sids[min(groupSize, len(sids)):]
	}
	return out, nil
}
