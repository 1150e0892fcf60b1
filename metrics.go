package cleanblog

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics owns a registry per App so several Apps can live in one process.
type metrics struct {
	registry      *prometheus.Registry
	loginAttempts *prometheus.CounterVec
	registrations *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &metrics{
		registry: reg,
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanblog",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result (ok, unknown_email, bad_password).",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanblog",
			Name:      "registrations_total",
			Help:      "Registration attempts by result (ok, duplicate, invalid).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.loginAttempts, m.registrations)
	return m
}

func (m *metrics) handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.registry})
}
