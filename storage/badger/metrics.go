// Copyright 2025 Stratum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import "github.com/VictoriaMetrics/metrics"

const metricsPrefix = "stratum_engine"

// NewMetricsSet builds the gauge set reporting the engine's BadgerDB counters.
// The caller registers the set at startup and unregisters it at shutdown; the
// gauges read live values on every scrape.
func NewMetricsSet(e *Engine) *metrics.Set {
	s := metrics.NewSet()

	s.NewGauge(metricsPrefix+"_lsm_size_bytes", func() float64 {
		lsm, _ := e.db.Size()
		return float64(lsm)
	})
	s.NewGauge(metricsPrefix+"_vlog_size_bytes", func() float64 {
		_, vlog := e.db.Size()
		return float64(vlog)
	})
	s.NewGauge(metricsPrefix+"_table_count", func() float64 {
		return float64(len(e.db.Tables()))
	})
	s.NewGauge(metricsPrefix+"_block_cache_hits", func() float64 {
		if m := e.db.BlockCacheMetrics(); m != nil {
			return float64(m.Hits())
		}
		return 0
	})
	s.NewGauge(metricsPrefix+"_block_cache_misses", func() float64 {
		if m := e.db.BlockCacheMetrics(); m != nil {
			return float64(m.Misses())
		}
		return 0
	})
	s.NewGauge(metricsPrefix+"_index_cache_hits", func() float64 {
		if m := e.db.IndexCacheMetrics(); m != nil {
			return float64(m.Hits())
		}
		return 0
	})
	s.NewGauge(metricsPrefix+"_index_cache_misses", func() float64 {
		if m := e.db.IndexCacheMetrics(); m != nil {
			return float64(m.Misses())
		}
		return 0
	})

	return s
}
