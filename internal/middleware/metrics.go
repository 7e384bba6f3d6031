// Package middleware provides logging, metrics, rate limiting, and
// authentication middleware for the application.
package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobfinder_redis_errors_total",
	Help: "Redis command errors by command",
}, []string{"command"})

// ModerationDecisions counts admin moderation outcomes.
var ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobfinder_moderation_decisions_total",
	Help: "Listing and proposal moderation decisions by kind and outcome",
}, []string{"kind", "outcome"})

// InitMetrics creates the Prometheus HTTP middleware for the given service.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
