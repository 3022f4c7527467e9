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
	"fmt"
	"net/netip"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/private/nodedir"
)

func newNodes() *cobra.Command {
	var flags struct {
		config    string
		logLevel  string
		nodesFile string
	}

	var cmd = &cobra.Command{
		Use:   "nodes",
		Short: "Show the node directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags.config, flags.logLevel)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			nodesFile := cfg.Nodes.File
			if flags.nodesFile != "" {
				nodesFile = flags.nodesFile
			}
			dir, err := nodedir.LoadFile(nodesFile)
			if err != nil {
				return serrors.Wrap("loading node directory", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Locator bits: %d, uSID identifier bits: %d\n",
				dir.BitWidth.LocatorBits, dir.BitWidth.IDBits)
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Name", "gRPC Endpoint", "uN", "uDT", "Fwd Engine"})
			for _, name := range dir.Names() {
				n := dir.Nodes[name]
				endpoint := ""
				if n.HasEndpoint() {
					endpoint = netip.AddrPortFrom(n.GRPCAddr,
						uint16(n.GRPCPort)).String()
				}
				table.Append([]string{
					n.Name,
					endpoint,
					addrOrDash(n.UN),
					addrOrDash(n.UDT),
					n.FwdEngine.String(),
				})
			}
			table.Render()
			fmt.Fprintf(out, "%s\n", plural(len(dir.Nodes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "srv6ctl.toml", "Configuration file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Console logging level override")
	cmd.Flags().StringVar(&flags.nodesFile, "nodes-file", "",
		"Node directory file, overrides the configuration")

	return cmd
}

func addrOrDash(a netip.Addr) string {
	if !a.IsValid() {
		return "-"
	}
	return a.String()
}

func plural(n int) string {
	if n == 1 {
		return "1 node"
	}
	return strconv.Itoa(n) + " nodes"
}
