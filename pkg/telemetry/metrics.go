package telemetry

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/vc"
)

const metricsNamespace = "robocar"

// Metrics exposes controller events as Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	commands *prometheus.CounterVec
	halts    prometheus.Counter
	outputs  prometheus.Counter
	throttle prometheus.Gauge
	steering prometheus.Gauge
	running  prometheus.Gauge
}

// NewMetrics creates Metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Dispatched command lines by verb and result.",
		}, []string{"verb", "result"}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "watchdog_halts_total",
			Help:      "Times the watchdog stopped the vehicle.",
		}),
		outputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "actuator_writes_total",
			Help:      "Output refreshes accepted by the actuators.",
		}),
		throttle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "throttle",
			Help:      "Current throttle.",
		}),
		steering: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "steering_degrees",
			Help:      "Current steering angle.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "running",
			Help:      "1 when the vehicle accepts motion commands.",
		}),
	}
	m.registry.MustRegister(m.commands, m.halts, m.outputs, m.throttle, m.steering, m.running)
	return m
}

// Observe implements vc.Observer.
func (m *Metrics) Observe(ev vc.Event) {
	switch ev.Type {
	case vc.EventCommand:
		m.commands.WithLabelValues(ev.Verb.String(), ev.Result.String()).Inc()
	case vc.EventHalt:
		m.halts.Inc()
	case vc.EventOutput:
		m.outputs.Inc()
	}
	m.throttle.Set(ev.State.Throttle)
	m.steering.Set(ev.State.Steering)
	if ev.State.Running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MetricsServer serves /metrics.
type MetricsServer struct {
	Addr    string
	Metrics *Metrics
}

// Name implements Named.
func (s *MetricsServer) Name() string {
	return "metrics"
}

// AddToLoop implements LoopAdder.
func (s *MetricsServer) AddToLoop(l *fx.Loop) {
	l.AddRunnable(s)
}

// Run implements Runnable.
func (s *MetricsServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics.Handler())
	srv := &http.Server{Handler: mux}
	glog.Infof("metrics on %s", ln.Addr())
	err = fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
