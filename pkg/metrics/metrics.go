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

// Package metrics defines interfaces for the most common metric types. The
// interfaces decouple the instrumented code from the metrics backend;
// instrumented code must treat nil implementations as valid no-op metrics.
package metrics

// Counter describes a metric that accumulates values monotonically.
type Counter interface {
	Add(delta float64)
}

// Gauge describes a metric that takes a specific value over time.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
}

// CounterInc increases the passed counter by one. The function is a no-op if
// the counter is nil.
func CounterInc(c Counter) {
	CounterAdd(c, 1)
}

// CounterAdd increases the passed counter by delta. The function is a no-op
// if the counter is nil.
func CounterAdd(c Counter, delta float64) {
	if c != nil {
		c.Add(delta)
	}
}

// GaugeSet sets the passed gauge to value. The function is a no-op if the
// gauge is nil.
func GaugeSet(g Gauge, value float64) {
	if g != nil {
		g.Set(value)
	}
}
