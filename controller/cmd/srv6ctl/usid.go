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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netgroup/srv6-controller/controller"
	"github.com/netgroup/srv6-controller/controller/fwdengine"
	cgrpc "github.com/netgroup/srv6-controller/pkg/grpc"
	"github.com/netgroup/srv6-controller/pkg/log"
	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/private/storage/policy"
)

func newUsid() *cobra.Command {
	var flags struct {
		config   string
		logLevel string
		noColor  bool
		json     bool

		op            string
		lrDestination string
		rlDestination string
		nodes         []string
		nodesRev      []string
		table         int
		metric        int
		id            string
		lGRPCIP       string
		lGRPCPort     int
		lFwdEngine    string
		rGRPCIP       string
		rGRPCPort     int
		rFwdEngine    string
		decapSID      string
		locator       string
		nodesFile     string
	}

	var cmd = &cobra.Command{
		Use:   "usid",
		Short: "Manage SRv6 uSID policies",
		Args:  cobra.NoArgs,
		Example: `  srv6ctl usid --op add --lr-destination fd00:0:83::/48 --rl-destination fd00:0:13::/48 --nodes r1,r2,r8
  srv6ctl usid --op get
  srv6ctl usid --op del --id 7`,
		Long: `'usid' adds, shows or removes bidirectional SRv6 uSID policies.

A policy steers the traffic for --lr-destination through the --nodes
waypoints and the traffic for --rl-destination through the --nodes-rev
waypoints. When --nodes-rev is omitted, the reverse of --nodes is used.
Waypoints are node names from the node directory, IPv6 uN SIDs, or bare
uSID identifiers expanded with --locator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := srv6.ParseOp(flags.op)
			if err != nil {
				return err
			}
			cfg, err := setup(flags.config, flags.logLevel)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			nodesFile := cfg.Nodes.File
			if flags.nodesFile != "" {
				nodesFile = flags.nodesFile
			}
			store, err := policy.New(cfg.Storage.Path)
			if err != nil {
				return serrors.Wrap("opening policy store", err)
			}
			defer store.Close()
			engine := &controller.Engine{
				Directory: controller.FileDirectory{Path: nodesFile},
				Programmer: &fwdengine.GRPC{
					Dialer:    cgrpc.TCPDialer{},
					NewClient: fwdengine.ManagerClientFactory,
				},
				Store:   store,
				Metrics: controller.NewMetrics(),
			}
			ctx, cancel := context.WithTimeout(context.Background(),
				cfg.GRPC.Timeout.Duration)
			defer cancel()
			ctx = log.CtxWith(ctx, log.Root())

			out := cmd.OutOrStdout()
			switch op {
			case srv6.OpAdd:
				p, err := policyFromFlags(flags.lrDestination, flags.rlDestination,
					flags.nodes, flags.nodesRev, flags.table, flags.metric,
					flags.lGRPCIP, flags.lGRPCPort, flags.lFwdEngine,
					flags.rGRPCIP, flags.rGRPCPort, flags.rFwdEngine,
					flags.decapSID, flags.locator)
				if err != nil {
					return err
				}
				return report(out, flags.noColor, "Policy installed")(
					engine.AddPolicy(ctx, p))
			case srv6.OpGet:
				f, err := filterFromFlags(flags.id, flags.lrDestination,
					flags.rlDestination, flags.nodes, flags.nodesRev,
					flags.table, flags.metric)
				if err != nil {
					return err
				}
				policies, err := engine.GetPolicies(ctx, f)
				if err != nil {
					return serrors.Wrap("querying policies", err)
				}
				if flags.json {
					return renderJSON(out, policies)
				}
				renderHuman(out, policies)
				return nil
			case srv6.OpDel:
				f, err := filterFromFlags(flags.id, flags.lrDestination,
					flags.rlDestination, flags.nodes, flags.nodesRev,
					flags.table, flags.metric)
				if err != nil {
					return err
				}
				return report(out, flags.noColor, "Policy removed")(
					engine.DelPolicy(ctx, f))
			default:
				return report(out, flags.noColor, "")(
					engine.ChangePolicy(ctx, srv6.UsidPolicy{}))
			}
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "srv6ctl.toml", "Configuration file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Console logging level override")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Write the output as machine readable json")
	cmd.Flags().StringVar(&flags.op, "op", "", "Operation: add, get, del (required)")
	cmd.Flags().StringVar(&flags.lrDestination, "lr-destination", "",
		"Destination prefix of the left-to-right path")
	cmd.Flags().StringVar(&flags.rlDestination, "rl-destination", "",
		"Destination prefix of the right-to-left path")
	cmd.Flags().StringSliceVar(&flags.nodes, "nodes", nil,
		"Waypoints of the left-to-right path")
	cmd.Flags().StringSliceVar(&flags.nodesRev, "nodes-rev", nil,
		"Waypoints of the right-to-left path (default: reversed --nodes)")
	cmd.Flags().IntVar(&flags.table, "table", srv6.UnsetTableMetric,
		"Routing table of the route")
	cmd.Flags().IntVar(&flags.metric, "metric", srv6.UnsetTableMetric,
		"Metric of the route")
	cmd.Flags().StringVar(&flags.id, "id", "", "Policy identifier (get, del)")
	cmd.Flags().StringVar(&flags.lGRPCIP, "l-grpc-ip", "",
		"gRPC address of the left node, when not in the node directory")
	cmd.Flags().IntVar(&flags.lGRPCPort, "l-grpc-port", 0, "gRPC port of the left node")
	cmd.Flags().StringVar(&flags.lFwdEngine, "l-fwd-engine", "",
		"Forwarding engine of the left node (Linux, VPP)")
	cmd.Flags().StringVar(&flags.rGRPCIP, "r-grpc-ip", "",
		"gRPC address of the right node, when not in the node directory")
	cmd.Flags().IntVar(&flags.rGRPCPort, "r-grpc-port", 0, "gRPC port of the right node")
	cmd.Flags().StringVar(&flags.rFwdEngine, "r-fwd-engine", "",
		"Forwarding engine of the right node (Linux, VPP)")
	cmd.Flags().StringVar(&flags.decapSID, "decap-sid", "",
		"Decap SID of the edge nodes, an IPv6 address or a uSID identifier")
	cmd.Flags().StringVar(&flags.locator, "locator", "",
		"SID locator used to expand bare uSID identifiers")
	cmd.Flags().StringVar(&flags.nodesFile, "nodes-file", "",
		"Node directory file, overrides the configuration")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

// report renders the outcome of a state changing operation.
func report(w io.Writer, noColor bool,
	success string) func(srv6.StatusCode, error) error {

	return func(code srv6.StatusCode, err error) error {
		if err != nil {
			return serrors.Wrap("operation failed", err, "status", code)
		}
		green := color.New(color.FgGreen)
		if noColor {
			green.DisableColor()
		}
		green.Fprintln(w, success)
		return nil
	}
}

func policyFromFlags(lrDst, rlDst string, nodes, nodesRev []string,
	table, metric int, lIP string, lPort int, lEngine string,
	rIP string, rPort int, rEngine string,
	decapSID, locator string) (srv6.UsidPolicy, error) {

	p := srv6.UsidPolicy{
		NodesLR:   nodes,
		NodesRL:   nodesRev,
		Table:     table,
		Metric:    metric,
		LGRPCPort: lPort,
		RGRPCPort: rPort,
		DecapSID:  decapSID,
	}
	var err error
	if p.LRDestination, err = parsePrefix(lrDst); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("invalid --lr-destination", err)
	}
	if p.RLDestination, err = parsePrefix(rlDst); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("invalid --rl-destination", err)
	}
	if locator != "" {
		if p.Locator, err = netip.ParseAddr(locator); err != nil {
			return srv6.UsidPolicy{}, serrors.Wrap("invalid --locator", err)
		}
	}
	if lIP != "" {
		if p.LGRPCAddr, err = netip.ParseAddr(lIP); err != nil {
			return srv6.UsidPolicy{}, serrors.Wrap("invalid --l-grpc-ip", err)
		}
	}
	if rIP != "" {
		if p.RGRPCAddr, err = netip.ParseAddr(rIP); err != nil {
			return srv6.UsidPolicy{}, serrors.Wrap("invalid --r-grpc-ip", err)
		}
	}
	if lEngine != "" {
		if p.LFwdEngine, err = srv6.ParseFwdEngine(lEngine); err != nil {
			return srv6.UsidPolicy{}, err
		}
	}
	if rEngine != "" {
		if p.RFwdEngine, err = srv6.ParseFwdEngine(rEngine); err != nil {
			return srv6.UsidPolicy{}, err
		}
	}
	return p, nil
}

func filterFromFlags(id, lrDst, rlDst string, nodes, nodesRev []string,
	table, metric int) (srv6.PolicyFilter, error) {

	f := srv6.PolicyFilter{
		ID:      id,
		NodesLR: nodes,
		NodesRL: nodesRev,
		Table:   table,
		Metric:  metric,
	}
	var err error
	if lrDst != "" {
		if f.LRDestination, err = parsePrefix(lrDst); err != nil {
			return srv6.PolicyFilter{}, serrors.Wrap("invalid --lr-destination", err)
		}
	}
	if rlDst != "" {
		if f.RLDestination, err = parsePrefix(rlDst); err != nil {
			return srv6.PolicyFilter{}, serrors.Wrap("invalid --rl-destination", err)
		}
	}
	return f, nil
}

// parsePrefix parses a destination given either as a prefix or as a plain
// address, which stands for a host prefix.
func parsePrefix(s string) (netip.Prefix, error) {
	if s == "" {
		return netip.Prefix{}, serrors.New("destination is mandatory")
	}
	if p, err := netip.ParsePrefix(s); err == nil {
		return p, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, serrors.New("not an address or prefix", "destination", s)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func renderHuman(w io.Writer, policies []srv6.UsidPolicy) {
	if len(policies) == 0 {
		fmt.Fprintln(w, "No policies found")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"ID", "LR Destination", "RL Destination",
		"Nodes LR", "Nodes RL", "Table", "Metric",
	})
	for _, p := range policies {
		table.Append([]string{
			p.ID,
			p.LRDestination.String(),
			p.RLDestination.String(),
			strings.Join(p.NodesLR, ", "),
			strings.Join(p.NodesRL, ", "),
			tableMetricString(p.Table),
			tableMetricString(p.Metric),
		})
	}
	table.Render()
}

func renderJSON(w io.Writer, policies []srv6.UsidPolicy) error {
	type policyJSON struct {
		ID            string   `json:"id"`
		LRDestination string   `json:"lr_destination"`
		RLDestination string   `json:"rl_destination"`
		NodesLR       []string `json:"nodes_lr"`
		NodesRL       []string `json:"nodes_rl,omitempty"`
		Table         int      `json:"table,omitempty"`
		Metric        int      `json:"metric,omitempty"`
	}
	out := make([]policyJSON, 0, len(policies))
	for _, p := range policies {
		out = append(out, policyJSON{
			ID:            p.ID,
			LRDestination: p.LRDestination.String(),
			RLDestination: p.RLDestination.String(),
			NodesLR:       p.NodesLR,
			NodesRL:       p.NodesRL,
			Table:         p.Table,
			Metric:        p.Metric,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func tableMetricString(v int) string {
	if v == srv6.UnsetTableMetric {
		return "-"
	}
	return strconv.Itoa(v)
}
