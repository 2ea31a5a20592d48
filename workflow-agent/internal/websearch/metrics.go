package websearch

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache use and outbound provider calls. A nil *Metrics
// records nothing.
type Metrics struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	externalAPICalls *prometheus.CounterVec
}

// NewMetrics registers the web search collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "websearch_cache_hits_total",
				Help: "Total number of web search cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "websearch_cache_misses_total",
				Help: "Total number of web search cache misses",
			},
		),
		externalAPICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external search API calls",
			},
			[]string{"provider", "status"},
		),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.externalAPICalls)
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) call(provider string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.externalAPICalls.WithLabelValues(provider, status).Inc()
}
