package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/protocol"
)

type fakeCounters link.Counters

func (f *fakeCounters) Counters() link.Counters { return link.Counters(*f) }

type fakeDispatch protocol.DispatchStats

func (f *fakeDispatch) Stats() protocol.DispatchStats { return protocol.DispatchStats(*f) }

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func counterValue(t *testing.T, families map[string]*dto.MetricFamily, name string, label ...string) float64 {
	t.Helper()
	f, ok := families[name]
	if !ok {
		t.Fatalf("metric %s not exported", name)
	}
	for _, m := range f.GetMetric() {
		if len(label) == 2 && !hasLabel(m, label[0], label[1]) {
			continue
		}
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s has no series with labels %v", name, label)
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestCollectorReadsCountersAtScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeCounters{TxCount: 4, RxLoss: 2, Sessions: 1}
	disp := &fakeDispatch{Sent: 7, Unknown: 3, Malformed: 1}

	m := New(WithRegistry(reg))
	m.Watch(src, disp)

	families := gather(t, reg)
	tests := []struct {
		name  string
		label []string
		want  float64
	}{
		{name: "multilink_link_tx_frames_total", want: 4},
		{name: "multilink_link_rx_loss_total", want: 2},
		{name: "multilink_link_sessions_total", want: 1},
		{name: "multilink_link_events_sent_total", want: 7},
		{name: "multilink_link_events_dropped_total", label: []string{"reason", "unknown"}, want: 3},
		{name: "multilink_link_events_dropped_total", label: []string{"reason", "malformed"}, want: 1},
	}
	for _, tc := range tests {
		if got := counterValue(t, families, tc.name, tc.label...); got != tc.want {
			t.Errorf("%s%v = %v, want %v", tc.name, tc.label, got, tc.want)
		}
	}

	src.TxCount = 9
	if got := counterValue(t, gather(t, reg), "multilink_link_tx_frames_total"); got != 9 {
		t.Errorf("tx_frames_total after update = %v, want 9", got)
	}
}

func TestCollectorWithoutDispatcher(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("game"), WithSubsystem(""))
	m.Watch(&fakeCounters{Faults: 1}, nil)

	families := gather(t, reg)
	if _, ok := families["game_events_sent_total"]; ok {
		t.Error("dispatcher metrics exported without a dispatcher")
	}
	if got := counterValue(t, families, "game_faults_total"); got != 1 {
		t.Errorf("game_faults_total = %v, want 1", got)
	}
}

func TestRecordedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithConstLabels(prometheus.Labels{"role": "host"}))

	m.ObserveNegotiation(120*time.Millisecond, nil)
	m.ObserveNegotiation(20*time.Second, errors.New("timeout"))
	m.SetConnected(true)
	m.ObserveStats(link.Stats{SaturationPercent: 40})

	var h dto.Metric
	if err := m.negotiation.WithLabelValues("failure").(prometheus.Metric).Write(&h); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if got := h.GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("failure samples = %d, want 1", got)
	}
	if !hasLabel(&h, "role", "host") {
		t.Error("const label missing")
	}

	var g dto.Metric
	if err := m.saturation.Write(&g); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if got := g.GetGauge().GetValue(); got != 40 {
		t.Errorf("saturation = %v, want 40", got)
	}

	m.SetConnected(false)
	if err := m.connected.Write(&g); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if got := g.GetGauge().GetValue(); got != 0 {
		t.Errorf("connected = %v, want 0", got)
	}
}
