package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iocost-sim/iocost-sim/sim"
)

// promMetrics mirrors a simulator's end-of-run state as prometheus gauges.
type promMetrics struct {
	clock          prometheus.Gauge
	ioTime         prometheus.Gauge
	dirty          prometheus.Gauge
	peakDirty      prometheus.Gauge
	avgBandwidth   prometheus.Gauge
	pending        prometheus.Gauge
	bytesWritten   prometheus.Gauge
	bytesFlushed   prometheus.Gauge
	libraryFlushes prometheus.Gauge
	regimeWrites   *prometheus.GaugeVec
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	f := promauto.With(reg)
	return &promMetrics{
		clock: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_simulated_seconds",
			Help: "Simulated wall time",
		}),
		ioTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_io_seconds",
			Help: "Simulated time spent inside write calls",
		}),
		dirty: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_dirty_bytes",
			Help: "Bytes written but not yet flushed",
		}),
		peakDirty: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_peak_dirty_bytes",
			Help: "Highest dirty level observed after a write",
		}),
		avgBandwidth: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_admitted_bandwidth_bytes_per_second",
			Help: "Running average throughput admitted into the page cache",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_library_pending_bytes",
			Help: "Bytes staged in the library buffer",
		}),
		bytesWritten: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_written_bytes",
			Help: "Bytes admitted into the page cache",
		}),
		bytesFlushed: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_flushed_bytes",
			Help: "Bytes written back by the background flusher",
		}),
		libraryFlushes: f.NewGauge(prometheus.GaugeOpts{
			Name: "iocost_library_flushes",
			Help: "Full library buffers handed to the kernel",
		}),
		regimeWrites: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iocost_writes",
			Help: "Write calls by the write-back regime they were admitted under",
		}, []string{"regime"}),
	}
}

func (m *promMetrics) update(s *sim.Simulator) {
	sm := s.Metrics()
	m.clock.Set(s.Clock())
	m.ioTime.Set(s.IOTime())
	m.dirty.Set(float64(s.Dirty()))
	m.peakDirty.Set(float64(sm.PeakDirty))
	m.avgBandwidth.Set(s.AvgBandwidth())
	m.pending.Set(float64(s.Pending()))
	m.bytesWritten.Set(float64(sm.BytesWritten))
	m.bytesFlushed.Set(float64(sm.BytesFlushed))
	m.libraryFlushes.Set(float64(sm.LibraryFlushes))
	for _, r := range []sim.Regime{sim.RegimeFreeRun, sim.RegimeAsync, sim.RegimeThrottled} {
		m.regimeWrites.WithLabelValues(r.String()).Set(float64(sm.RegimeWrites[r]))
	}
}

// writeMetricsTextfile exports the simulator's state in the node-exporter
// textfile format.
func writeMetricsTextfile(path string, s *sim.Simulator) error {
	reg := prometheus.NewRegistry()
	newPromMetrics(reg).update(s)
	return prometheus.WriteToTextfile(path, reg)
}
