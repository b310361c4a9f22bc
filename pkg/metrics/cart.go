package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics tracks cart store activity.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	lines     prometheus.Gauge
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Applied cart mutations by operation.",
	}, []string{"operation"})
	lines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_lines",
		Help: "Line items currently in the cart.",
	})
	reg.MustRegister(mutations, lines)
	return &CartMetrics{mutations: mutations, lines: lines}
}

func (c *CartMetrics) IncMutation(operation string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (c *CartMetrics) SetLines(n int) {
	if c == nil || c.lines == nil {
		return
	}
	c.lines.Set(float64(n))
}
