// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics provides observability for the clinic service.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP request latency by method, route and status
	RequestDuration *prometheus.HistogramVec

	// Discharge gate outcomes: "cleared" or "blocked"
	DischargeGate *prometheus.CounterVec

	// Payments recorded by status
	Payments *prometheus.CounterVec

	// Sum of successful payment amounts
	PaymentAmount prometheus.Counter
}

// New registers all collectors with reg. Passing prometheus.NewRegistry()
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),

		DischargeGate: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_discharge_gate_total",
			Help: "Discharge attempts by billing gate outcome",
		}, []string{"outcome"}),

		Payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_payments_total",
			Help: "Payment transactions recorded by status",
		}, []string{"status"}),

		PaymentAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinic_payment_amount_total",
			Help: "Sum of successful payment amounts in the clinic currency",
		}),
	}
}

// ObserveDischargeGate records one discharge gate decision.
func (m *Metrics) ObserveDischargeGate(cleared bool) {
	if m == nil {
		return
	}
	outcome := "blocked"
	if cleared {
		outcome = "cleared"
	}
	m.DischargeGate.WithLabelValues(outcome).Inc()
}

// ObservePayment records a payment transaction.
func (m *Metrics) ObservePayment(status string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(status).Inc()
	if status == "Success" {
		f, _ := amount.Float64()
		m.PaymentAmount.Add(f)
	}
}

// Middleware records request latency, labelled by the matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
