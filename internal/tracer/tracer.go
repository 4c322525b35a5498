/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */

// Package tracer provides the dispatcher's opt-in observability surface:
// a small set of Prometheus counters plus an HTTP /metrics endpoint,
// grounded on the teacher's metrics package (metrics.Registry,
// metrics.Server) and generalized from per-LLM-request counters to
// per-dispatch-event counters.
package tracer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Namespace is the Prometheus namespace for every kbhookd metric.
const Namespace = "kbhookd"

// Tracer counts dispatch engine activity. It is always constructed —
// counting in memory is free — but the HTTP server that exposes it is
// only started when requested (KBHOOKD_METRICS_ADDR set), matching spec.md §9's
// treatment of observability as strictly opt-in.
type Tracer struct {
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	commandsTotal   prometheus.Counter
	forwardsTotal   prometheus.Counter
	activationTotal *prometheus.CounterVec
	reloadsTotal    *prometheus.CounterVec

	startedAt time.Time
	logger    *zap.Logger
}

// New builds a Tracer with its own registry, avoiding pollution of the
// process-global default registry (same rationale as the teacher's
// metrics.Registry).
func New(logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	t := &Tracer{
		registry: reg,
		logger:   logger,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Key events seen by the dispatch engine, by decision.",
		}, []string{"decision"}),
		commandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Commands dispatched to the Executor.",
		}),
		forwardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "forwards_total",
			Help:      "Key presses forwarded via synthesized events.",
		}),
		activationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "mode_activations_total",
			Help:      "Mode activations, by target mode name.",
		}, []string{"mode"}),
		reloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reload",
			Name:      "total",
			Help:      "Configuration reloads, by outcome.",
		}, []string{"outcome"}),
		startedAt: time.Now(),
	}
	reg.MustRegister(t.eventsTotal, t.commandsTotal, t.forwardsTotal, t.activationTotal, t.reloadsTotal)
	return t
}

// ObserveDecision records one dispatched event's final decision
// ("consumed" or "unchanged").
func (t *Tracer) ObserveDecision(decision string) {
	if t == nil {
		return
	}
	t.eventsTotal.WithLabelValues(decision).Inc()
}

// ObserveCommand records one Executor invocation.
func (t *Tracer) ObserveCommand() {
	if t == nil {
		return
	}
	t.commandsTotal.Inc()
}

// ObserveForward records one forwarded key press.
func (t *Tracer) ObserveForward() {
	if t == nil {
		return
	}
	t.forwardsTotal.Inc()
}

// ObserveActivation records one mode activation.
func (t *Tracer) ObserveActivation(mode string) {
	if t == nil {
		return
	}
	t.activationTotal.WithLabelValues(mode).Inc()
}

// ObserveReload records one reload attempt's outcome ("applied" or
// "failed"), per the Live-Reload Controller's contract (spec.md §4.G).
func (t *Tracer) ObserveReload(outcome string) {
	if t == nil {
		return
	}
	t.reloadsTotal.WithLabelValues(outcome).Inc()
}

// Summary gathers the current counter values into a flat map, used for
// the summary log lines written at graceful shutdown.
func (t *Tracer) Summary() map[string]float64 {
	out := make(map[string]float64)
	families, err := t.registry.Gather()
	if err != nil {
		return out
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			val := m.GetCounter().GetValue()
			if val == 0 && m.GetGauge() != nil {
				val = m.GetGauge().GetValue()
			}
			label := fam.GetName()
			for _, lp := range m.GetLabel() {
				label += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			out[label] = val
		}
	}
	return out
}

// Server serves the /metrics HTTP endpoint for Prometheus scraping
// (grounded on metrics.Server; generalized to wrap a Tracer's own
// registry instead of the package-global one).
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds an HTTP server exposing t's registry on addr
// (e.g. "127.0.0.1:9420").
func NewServer(t *Tracer, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving metrics in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown error", zap.Error(err))
	}
}
