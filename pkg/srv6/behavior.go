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
	"net/netip"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// BehaviorAction is a seg6local forwarding instruction installed as a local
// route on a node. Each action consumes a different set of attributes of a
// BehaviorRequest.
type BehaviorAction int

// Supported seg6local actions.
const (
	ActionUnspec BehaviorAction = iota
	ActionEnd
	ActionEndX
	ActionEndT
	ActionEndDX2
	ActionEndDX4
	ActionEndDX6
	ActionEndDT4
	ActionEndDT6
	ActionEndDT46
	ActionEndB6
	ActionEndB6Encaps
	ActionUN
)

var behaviorActionNames = map[BehaviorAction]string{
	ActionEnd:         "End",
	ActionEndX:        "End.X",
	ActionEndT:        "End.T",
	ActionEndDX2:      "End.DX2",
	ActionEndDX4:      "End.DX4",
	ActionEndDX6:      "End.DX6",
	ActionEndDT4:      "End.DT4",
	ActionEndDT6:      "End.DT6",
	ActionEndDT46:     "End.DT46",
	ActionEndB6:       "End.B6",
	ActionEndB6Encaps: "End.B6.Encaps",
	ActionUN:          "uN",
}

// ParseBehaviorAction parses a seg6local action name, e.g. "End.DT6" or "uN".
func ParseBehaviorAction(s string) (BehaviorAction, error) {
	for action, name := range behaviorActionNames {
		if name == s {
			return action, nil
		}
	}
	return ActionUnspec, serrors.New("unrecognized seg6local action", "action", s)
}

func (a BehaviorAction) String() string {
	if name, ok := behaviorActionNames[a]; ok {
		return name
	}
	return "Unspec"
}

// BehaviorRequest describes one seg6local behavior to be installed on (or
// removed from) a node: packets whose destination is Segment trigger Action.
type BehaviorRequest struct {
	Op      Op
	Segment netip.Prefix
	Action  BehaviorAction
	Device  string
	Table   int
	Metric  int
	// Nexthop is used by the cross-connect actions (End.X, End.DX4, End.DX6).
	Nexthop netip.Addr
	// LookupTable is used by the decap-and-lookup actions (End.T, End.DT4,
	// End.DT6, End.DT46).
	LookupTable int
	// Interface is used by the L2 cross-connect action (End.DX2).
	Interface string
	// Segments is used by the binding SID actions (End.B6, End.B6.Encaps).
	Segments  []netip.Addr
	FwdEngine FwdEngine
}

// Validate checks that all the attributes required by the requested action
// are present. The switch is exhaustive over the supported actions.
func (r BehaviorRequest) Validate() error {
	if !r.Segment.IsValid() {
		return serrors.New("segment is mandatory")
	}
	if r.Op != OpAdd {
		return nil
	}
	switch r.Action {
	case ActionEnd, ActionUN:
		return nil
	case ActionEndX, ActionEndDX4, ActionEndDX6:
		if !r.Nexthop.IsValid() {
			return serrors.New("nexthop is mandatory", "action", r.Action)
		}
		return nil
	case ActionEndT, ActionEndDT4, ActionEndDT6, ActionEndDT46:
		if r.LookupTable == UnsetTableMetric {
			return serrors.New("lookup table is mandatory", "action", r.Action)
		}
		return nil
	case ActionEndDX2:
		if r.Interface == "" {
			return serrors.New("interface is mandatory", "action", r.Action)
		}
		return nil
	case ActionEndB6, ActionEndB6Encaps:
		if len(r.Segments) == 0 {
			return serrors.New("segments are mandatory", "action", r.Action)
		}
		return nil
	case ActionUnspec:
		return serrors.New("action is mandatory for add operation")
	}
	return serrors.New("unrecognized seg6local action", "action", int(r.Action))
}
