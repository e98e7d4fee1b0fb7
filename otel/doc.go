// Package otel provides OpenTelemetry integration for fortis metrics.
//
// # Overview
//
// Collector implements both fortis.MetricsCollector (store operations) and
// fortis.BreakerObserver (circuit breaker transitions and rejections), so a
// single instance can be plugged into a Store and its breakers.
//
// # Quick Start
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := fortisotel.NewCollector(provider, fortisotel.WithCacheName("ledger"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := fortis.NewStore[Account](fortis.Config{
//	    MaxSize:          10_000,
//	    MetricsCollector: collector,
//	})
//	breaker := fortis.NewCircuitBreaker(fortis.BreakerConfig{
//	    Name:     "ledger-db",
//	    Observer: collector,
//	})
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Metrics Exposed
//
// Histograms:
//   - fortis_get_latency_ns: Get() latency in nanoseconds
//   - fortis_put_latency_ns: Put() latency in nanoseconds
//   - fortis_remove_latency_ns: Remove() latency in nanoseconds
//
// Counters:
//   - fortis_get_hits_total, fortis_get_misses_total
//   - fortis_evictions_total: entries removed by the eviction policy
//   - fortis_expirations_total: expired entries removed on access or cleanup
//   - fortis_breaker_transitions_total: labelled breaker, from, to
//   - fortis_breaker_rejections_total: labelled breaker
//
// # Prometheus Queries
//
// Hit ratio:
//
//	rate(fortis_get_hits_total[5m]) /
//	(rate(fortis_get_hits_total[5m]) + rate(fortis_get_misses_total[5m]))
//
// Breakers that opened in the last hour:
//
//	increase(fortis_breaker_transitions_total{to="OPEN"}[1h]) > 0
package otel
