package chat

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the store's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Messages      *prometheus.CounterVec
	Reactions     *prometheus.CounterVec
	PendingTimers prometheus.Gauge
	PresenceTicks prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatspace",
			Name:      "messages_total",
			Help:      "Messages appended to the conversation log by kind.",
		}, []string{"kind"}),
		Reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatspace",
			Name:      "reaction_toggles_total",
			Help:      "Reaction toggles by resulting operation.",
		}, []string{"op"}),
		PendingTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatspace",
			Name:      "pending_timers",
			Help:      "Scheduled simulation effects that have not fired yet.",
		}),
		PresenceTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatspace",
			Name:      "presence_ticks_total",
			Help:      "Presence simulation ticks.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Messages, m.Reactions, m.PendingTimers, m.PresenceTicks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) message(kind string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) reaction(added bool) {
	if m == nil {
		return
	}
	op := "remove"
	if added {
		op = "add"
	}
	m.Reactions.WithLabelValues(op).Inc()
}

func (m *Metrics) timers(n int) {
	if m == nil {
		return
	}
	m.PendingTimers.Set(float64(n))
}

func (m *Metrics) tick() {
	if m == nil {
		return
	}
	m.PresenceTicks.Inc()
}
