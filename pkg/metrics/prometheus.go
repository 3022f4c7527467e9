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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewPromCounter wraps a prometheus counter as a counter. Returns nil if c is
// nil.
func NewPromCounter(c prometheus.Counter) Counter {
	if c == nil {
		return nil
	}
	return promCounter{c: c}
}

// NewPromCounterFrom creates a wrapped prometheus counter. The caller is
// responsible for registering it.
func NewPromCounterFrom(opts prometheus.CounterOpts) Counter {
	return promCounter{c: prometheus.NewCounter(opts)}
}

// NewPromGauge wraps a prometheus gauge as a gauge. Returns nil if g is nil.
func NewPromGauge(g prometheus.Gauge) Gauge {
	if g == nil {
		return nil
	}
	return promGauge{g: g}
}

type promCounter struct {
	c prometheus.Counter
}

func (c promCounter) Add(delta float64) {
	c.c.Add(delta)
}

type promGauge struct {
	g prometheus.Gauge
}

func (g promGauge) Set(value float64) {
	g.g.Set(value)
}

func (g promGauge) Add(delta float64) {
	g.g.Add(delta)
}
