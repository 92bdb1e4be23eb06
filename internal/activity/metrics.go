package activity

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "midiplexer"

// Metrics exports activity as Prometheus series.
type Metrics struct {
	events       *prometheus.CounterVec
	signals      *prometheus.CounterVec
	trackSends   *prometheus.CounterVec
	trackPlaying *prometheus.GaugeVec
	sceneMode    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Activity events by kind",
		}, []string{"kind"}),

		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "signals_total",
			Help:      "Controller signals received, by controller and whether they were mapped",
		}, []string{"controller", "mapped"}),

		trackSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "track_messages_total",
			Help:      "Messages sent by tracks, by client",
		}, []string{"client"}),

		trackPlaying: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "track_playing",
			Help:      "1 when the track is playing",
		}, []string{"client", "track"}),

		sceneMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "scene_mode",
			Help:      "1 while the router is in scene mode, 0 in trigger mode",
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.signals, m.trackSends, m.trackPlaying, m.sceneMode} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe implements Observer.
func (m *Metrics) Observe(e Event) {
	m.events.WithLabelValues(string(e.Kind)).Inc()

	switch e.Kind {
	case KindSignal:
		m.signals.WithLabelValues(e.Controller, "true").Inc()
	case KindUnmappedSignal:
		m.signals.WithLabelValues(e.Controller, "false").Inc()
	case KindTrackChanged:
		m.trackSends.WithLabelValues(e.Client).Inc()
		if e.Playing {
			m.trackPlaying.WithLabelValues(e.Client, e.Track).Set(1)
		} else {
			m.trackPlaying.WithLabelValues(e.Client, e.Track).Set(0)
		}
	case KindModeChanged:
		if e.Mode == "scene" {
			m.sceneMode.Set(1)
		} else {
			m.sceneMode.Set(0)
		}
	case KindSceneActivated, KindDispatchError:
	}
}
