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

// srv6ctl is the command line front of the SRv6 uSID controller.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/netgroup/srv6-controller/controller/config"
	"github.com/netgroup/srv6-controller/pkg/log"
	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

func main() {
	executable := filepath.Base(os.Args[0])
	cmd := &cobra.Command{
		Use:   executable,
		Short: "SRv6 uSID SDN controller",
		Args:  cobra.NoArgs,
		// Silence the errors, since we print them in main. Otherwise, cobra
		// will print any non-nil errors returned by a RunE function.
		// See https://github.com/spf13/cobra/issues/340.
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newUsid(),
		newNodes(),
		newConfig(),
		newVersion(),
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
}

// setup loads the configuration, initializes logging and, when configured,
// starts the Prometheus exporter.
func setup(configFile, logLevel string) (config.Config, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logCfg := log.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if err := log.Setup(logCfg); err != nil {
		return config.Config{}, serrors.Wrap("setting up logging", err)
	}
	if cfg.Metrics.Prometheus != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Prometheus, mux); err != nil {
				log.Error("Prometheus exporter failed", "err", err)
			}
		}()
	}
	return cfg, nil
}
