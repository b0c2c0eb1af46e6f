// Copyright 2025 The Srcdex Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngest holds Prometheus metrics for the ingestion subsystem.
type metricsIngest struct {
	once sync.Once

	// Sidecars
	sidecarsWritten prometheus.Counter
	sidecarsReused  prometheus.Counter

	// Files
	filesHashed prometheus.Counter

	// Index writes
	versionsSkipped  prometheus.Counter
	rowsInserted     prometheus.Counter
	rowsDeletedTotal prometheus.Counter

	// Packages
	packagesProcessed prometheus.Counter
	packagesFailed    prometheus.Counter

	// Durations
	hashDuration    prometheus.Histogram
	persistDuration prometheus.Histogram
	packageDuration prometheus.Histogram
}

var ingMetrics metricsIngest

func (m *metricsIngest) init() {
	m.once.Do(func() {
		m.sidecarsWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_sidecars_written_total", Help: "Sidecar digest listings written"})
		m.sidecarsReused = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_sidecars_reused_total", Help: "Sidecar digest listings found already present"})

		m.filesHashed = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_files_hashed_total", Help: "Files hashed during sidecar production"})

		m.versionsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_versions_skipped_total", Help: "Versions skipped by the existence check"})
		m.rowsInserted = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_checksum_rows_inserted_total", Help: "Checksum rows inserted"})
		m.rowsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_checksum_rows_deleted_total", Help: "Checksum rows deleted by removal passes"})

		m.packagesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_packages_processed_total", Help: "Package events processed"})
		m.packagesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "srcdex_ing_packages_failed_total", Help: "Package events that ended in a plugin failure"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.hashDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "srcdex_ing_hash_seconds", Help: "Walk-and-hash duration per package version", Buckets: buckets})
		m.persistDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "srcdex_ing_persist_seconds", Help: "Index persistence duration per package version", Buckets: buckets})
		m.packageDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "srcdex_ing_package_seconds", Help: "Total duration per package event", Buckets: buckets})

		prometheus.MustRegister(
			m.sidecarsWritten, m.sidecarsReused,
			m.filesHashed,
			m.versionsSkipped, m.rowsInserted, m.rowsDeletedTotal,
			m.packagesProcessed, m.packagesFailed,
			m.hashDuration, m.persistDuration, m.packageDuration,
		)
	})
}

// record helpers - used by the plugin and runner
func (m *metricsIngest) sidecarWritten() { m.init(); m.sidecarsWritten.Inc() }
func (m *metricsIngest) sidecarReused()  { m.init(); m.sidecarsReused.Inc() }
func (m *metricsIngest) versionSkipped() { m.init(); m.versionsSkipped.Inc() }

func (m *metricsIngest) observeHash(d time.Duration, files int) {
	m.init()
	m.hashDuration.Observe(d.Seconds())
	m.filesHashed.Add(float64(files))
}

func (m *metricsIngest) observePersist(d time.Duration, rows int) {
	m.init()
	m.persistDuration.Observe(d.Seconds())
	m.rowsInserted.Add(float64(rows))
}

func (m *metricsIngest) rowsDeleted(n int64) { m.init(); m.rowsDeletedTotal.Add(float64(n)) }

func (m *metricsIngest) observePackage(d time.Duration, failed bool) {
	m.init()
	m.packageDuration.Observe(d.Seconds())
	m.packagesProcessed.Inc()
	if failed {
		m.packagesFailed.Inc()
	}
}
