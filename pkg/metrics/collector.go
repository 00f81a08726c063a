package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// collector turns counter snapshots into const metrics at scrape time.
type collector struct {
	src  CounterSource
	disp DispatchSource

	txFrames, rxFrames     *prometheus.Desc
	txLoss, rxLoss         *prometheus.Desc
	filler, data           *prometheus.Desc
	sessions               *prometheus.Desc
	negotiationFailures    *prometheus.Desc
	faults                 *prometheus.Desc
	eventsSent, eventsRecv *prometheus.Desc
	eventsDropped          *prometheus.Desc
}

func newCollector(config Config, src CounterSource, disp DispatchSource) *collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(config.Namespace, config.Subsystem, name),
			help, labels, config.ConstLabels)
	}
	return &collector{
		src:  src,
		disp: disp,

		txFrames:            desc("tx_frames_total", "Data frames fully transmitted"),
		rxFrames:            desc("rx_frames_total", "Frames received and queued"),
		txLoss:              desc("tx_loss_total", "Outbound frames lost to pool exhaustion or ring overflow"),
		rxLoss:              desc("rx_loss_total", "Inbound frames lost to pool exhaustion or ring overflow"),
		filler:              desc("filler_frames_total", "All-zero frames sent while the TX ring was empty"),
		data:                desc("data_frames_total", "Data frames sent"),
		sessions:            desc("sessions_total", "Completed handshakes"),
		negotiationFailures: desc("negotiation_failures_total", "Negotiations that ended in an error"),
		faults:              desc("faults_total", "Disconnects caused by a transmission error or a lost peer"),
		eventsSent:          desc("events_sent_total", "Events queued by the dispatcher"),
		eventsRecv:          desc("events_received_total", "Events decoded and delivered"),
		eventsDropped:       desc("events_dropped_total", "Received frames that did not decode", "reason"),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.txFrames
	ch <- c.rxFrames
	ch <- c.txLoss
	ch <- c.rxLoss
	ch <- c.filler
	ch <- c.data
	ch <- c.sessions
	ch <- c.negotiationFailures
	ch <- c.faults
	if c.disp != nil {
		ch <- c.eventsSent
		ch <- c.eventsRecv
		ch <- c.eventsDropped
	}
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	s := c.src.Counters()
	counter(c.txFrames, s.TxCount)
	counter(c.rxFrames, s.RxCount)
	counter(c.txLoss, s.TxLoss)
	counter(c.rxLoss, s.RxLoss)
	counter(c.filler, s.FillerFrames)
	counter(c.data, s.DataFrames)
	counter(c.sessions, s.Sessions)
	counter(c.negotiationFailures, s.NegotiationFailures)
	counter(c.faults, s.Faults)

	if c.disp == nil {
		return
	}
	d := c.disp.Stats()
	counter(c.eventsSent, d.Sent)
	counter(c.eventsRecv, d.Received)
	counter(c.eventsDropped, d.Unknown, "unknown")
	counter(c.eventsDropped, d.Malformed, "malformed")
}
