package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

// domain collectors, registered by Init
var (
	plansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapspec_plans_total",
			Help: "Map specs built, by input mode and match outcome.",
		},
		[]string{"mode", "outcome"},
	)

	planDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapspec_plan_duration_seconds",
			Help:    "Time spent building a map spec.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"mode"},
	)

	projectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapspec_projection_selected_total",
			Help: "Projections chosen for map specs.",
		},
		[]string{"kind", "source"},
	)

	unmatchedNamesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mapspec_unmatched_names_total",
			Help: "Input names that matched no catalog feature.",
		},
	)

	catalogInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_info",
			Help: "Loaded catalog (value is always 1).",
		},
		[]string{"version"},
	)

	catalogLoadSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_load_seconds",
			Help: "Time taken to build the catalog.",
		},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	planCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_cache_results_total",
			Help: "Plan cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_events_total",
			Help: "Unmatched-name events by result.",
		},
		[]string{"result"},
	)
)

var initMu sync.Mutex

// Init registers the domain collectors on reg. With enabled false, or a nil
// reg, the default registry is used so /metrics on the main listener still
// exposes them. Calling Init again with another registry adds it.
func Init(reg prometheus.Registerer, enabled bool) {
	initMu.Lock()
	defer initMu.Unlock()
	if !enabled || reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		plansTotal, planDurationSeconds, projectionsTotal, unmatchedNamesTotal,
		catalogInfo, catalogLoadSeconds, cacheOpTotal, redisOpDuration,
		planCacheResults, eventsTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObservePlan records one built spec. outcome is "matched", "partial" or
// "unmatched".
func ObservePlan(mode, outcome string, unmatched int, durationSeconds float64) {
	plansTotal.WithLabelValues(mode, outcome).Inc()
	planDurationSeconds.WithLabelValues(mode).Observe(durationSeconds)
	if unmatched > 0 {
		unmatchedNamesTotal.Add(float64(unmatched))
	}
}

// ObserveProjection counts a chosen projection; source is "selected" or
// "override".
func ObserveProjection(kind, source string) {
	projectionsTotal.WithLabelValues(kind, source).Inc()
}

func SetCatalog(version string, loadSeconds float64) {
	catalogInfo.Reset()
	catalogInfo.WithLabelValues(version).Set(1)
	catalogLoadSeconds.Set(loadSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	cacheOpTotal.WithLabelValues(op, res).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func ObservePlanCache(tier string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	planCacheResults.WithLabelValues(tier, outcome).Inc()
}

// ObserveEvent counts a publish attempt: "queued", "dropped" or "failed".
func ObserveEvent(result string) {
	eventsTotal.WithLabelValues(result).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
