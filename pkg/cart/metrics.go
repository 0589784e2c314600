package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slask_theme_cart_requests_total",
		Help: "The total number of cart requests by operation and outcome",
	}, []string{"op", "outcome"})
	served = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slask_theme_devshop_cart_requests_total",
		Help: "The total number of cart requests served by the dev backend",
	}, []string{"route", "code"})
)
