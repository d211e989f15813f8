package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// lifetimeBuckets spans a quick sit (seconds) up to an idle hour.
var lifetimeBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	activations *prom.CounterVec
	rejections  *prom.CounterVec
	stops       *prom.CounterVec
	lifetime    *prom.HistogramVec
	active      *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the attachment metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		activations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gsit",
			Name:      "activations_total",
			Help:      "Attachment states successfully started",
		}, []string{"kind"}),
		rejections: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gsit",
			Name:      "rejections_total",
			Help:      "Start requests refused, by cause",
		}, []string{"kind", "cause"}),
		stops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gsit",
			Name:      "stops_total",
			Help:      "Stop attempts by reason and whether a subscriber vetoed",
		}, []string{"kind", "reason", "vetoed"}),
		lifetime: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gsit",
			Name:      "lifetime_seconds",
			Help:      "Lifetime of completed attachment states",
			Buckets:   lifetimeBuckets,
		}, []string{"kind"}),
		active: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "gsit",
			Name:      "active",
			Help:      "Currently active attachment states",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.activations, pr.rejections, pr.stops, pr.lifetime, pr.active)
	return pr
}

func (p *PrometheusRecorder) IncActivation(kind string) {
	if p == nil {
		return
	}
	p.activations.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRejection(kind string, cause RejectCause) {
	if p == nil {
		return
	}
	p.rejections.WithLabelValues(kind, string(cause)).Inc()
}

func (p *PrometheusRecorder) IncStop(kind, reason string, vetoed bool) {
	if p == nil {
		return
	}
	p.stops.WithLabelValues(kind, reason, strconv.FormatBool(vetoed)).Inc()
}

func (p *PrometheusRecorder) ObserveLifetime(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.lifetime.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetActive(kind string, n int) {
	if p == nil {
		return
	}
	p.active.WithLabelValues(kind).Set(float64(n))
}
