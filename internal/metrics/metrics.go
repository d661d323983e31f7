// Package metrics collects Prometheus metrics and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRegistration(namespace string)
	RecordLogin(namespace string, success bool)
	RecordPurchase(outcome string)
	RecordUpload(success bool)
}

// Purchase outcomes.
const (
	PurchaseCreated   = "created"
	PurchaseDuplicate = "duplicate"
	PurchaseFailed    = "payment_failed"
	PurchasePaid      = "paid"
	PurchaseCanceled  = "canceled"
	PurchaseExpired   = "expired"
)

type Collector struct {
	httpStatus    *prometheus.CounterVec
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	purchases     *prometheus.CounterVec
	uploads       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursemarket_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursemarket_registrations_total",
			Help: "Successful registrations by namespace.",
		}, []string{"namespace"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursemarket_logins_total",
			Help: "Login attempts by namespace and result.",
		}, []string{"namespace", "result"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursemarket_purchases_total",
			Help: "Purchase ledger events by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursemarket_uploads_total",
			Help: "Course image uploads by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.registrations,
		c.logins,
		c.purchases,
		c.uploads,
	)

	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRegistration(namespace string) {
	c.registrations.WithLabelValues(namespace).Inc()
}

func (c *Collector) RecordLogin(namespace string, success bool) {
	c.logins.WithLabelValues(namespace, result(success)).Inc()
}

func (c *Collector) RecordPurchase(outcome string) {
	c.purchases.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordUpload(success bool) {
	c.uploads.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
