package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weft_cache_hits_total",
		Help: "Cache lookups that returned a live entry.",
	}, []string{"cache"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weft_cache_misses_total",
		Help: "Cache lookups that found no entry or an expired one.",
	}, []string{"cache"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weft_cache_evictions_total",
		Help: "Entries removed to stay within capacity.",
	}, []string{"cache"})

	cacheExpirations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weft_cache_expirations_total",
		Help: "Entries removed because their TTL elapsed.",
	}, []string{"cache"})
)
