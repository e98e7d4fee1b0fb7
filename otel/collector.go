// collector.go: OpenTelemetry metrics for fortis stores and breakers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package otel

import (
	"context"
	"errors"

	"github.com/agilira/fortis"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector implements fortis.MetricsCollector and fortis.BreakerObserver
// using OpenTelemetry instruments.
//
// Thread-safety: Safe for concurrent use by multiple goroutines.
// The underlying OTEL instruments are thread-safe.
type Collector struct {
	getLatency    metric.Int64Histogram
	putLatency    metric.Int64Histogram
	removeLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	expirations   metric.Int64Counter
	transitions   metric.Int64Counter
	rejections    metric.Int64Counter

	// attrs are attached to every cache measurement.
	attrs metric.MeasurementOption
}

// Options for configuring Collector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/fortis"
	MeterName string

	// CacheName labels cache measurements with a "cache" attribute.
	// Empty means no label.
	CacheName string
}

// Option is a functional option for configuring Collector.
type Option func(*Options)

// WithMeterName sets a custom meter name.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// WithCacheName labels cache measurements, so that several stores can share
// one meter provider.
func WithCacheName(name string) Option {
	return func(o *Options) {
		o.CacheName = name
	}
}

// ErrNilMeterProvider is returned by NewCollector when provider is nil.
var ErrNilMeterProvider = errors.New("meter provider cannot be nil")

// NewCollector creates an OpenTelemetry collector.
//
// Instruments:
//   - fortis_get_latency_ns, fortis_put_latency_ns, fortis_remove_latency_ns (histograms)
//   - fortis_get_hits_total, fortis_get_misses_total
//   - fortis_evictions_total, fortis_expirations_total
//   - fortis_breaker_transitions_total{breaker,from,to}
//   - fortis_breaker_rejections_total{breaker}
func NewCollector(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, ErrNilMeterProvider
	}

	options := Options{
		MeterName: "github.com/agilira/fortis",
	}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &Collector{
		attrs: metric.WithAttributeSet(attribute.NewSet()),
	}
	if options.CacheName != "" {
		c.attrs = metric.WithAttributes(attribute.String("cache", options.CacheName))
	}

	var err error
	histograms := []struct {
		dst  *metric.Int64Histogram
		name string
		desc string
	}{
		{&c.getLatency, "fortis_get_latency_ns", "Latency of Get operations in nanoseconds"},
		{&c.putLatency, "fortis_put_latency_ns", "Latency of Put operations in nanoseconds"},
		{&c.removeLatency, "fortis_remove_latency_ns", "Latency of Remove operations in nanoseconds"},
	}
	for _, h := range histograms {
		*h.dst, err = meter.Int64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ns"))
		if err != nil {
			return nil, err
		}
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&c.hits, "fortis_get_hits_total", "Total number of cache hits"},
		{&c.misses, "fortis_get_misses_total", "Total number of cache misses"},
		{&c.evictions, "fortis_evictions_total", "Total number of policy-driven evictions"},
		{&c.expirations, "fortis_expirations_total", "Total number of expired entries removed"},
		{&c.transitions, "fortis_breaker_transitions_total", "Total number of circuit breaker state transitions"},
		{&c.rejections, "fortis_breaker_rejections_total", "Total number of calls refused by a circuit breaker"},
	}
	for _, ctr := range counters {
		*ctr.dst, err = meter.Int64Counter(ctr.name, metric.WithDescription(ctr.desc))
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordGet records a Get latency and its hit or miss.
func (c *Collector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs, c.attrs)
	if hit {
		c.hits.Add(ctx, 1, c.attrs)
	} else {
		c.misses.Add(ctx, 1, c.attrs)
	}
}

// RecordPut records a Put latency.
func (c *Collector) RecordPut(latencyNs int64) {
	c.putLatency.Record(context.Background(), latencyNs, c.attrs)
}

// RecordRemove records a Remove latency.
func (c *Collector) RecordRemove(latencyNs int64) {
	c.removeLatency.Record(context.Background(), latencyNs, c.attrs)
}

// RecordEviction records a policy-driven eviction.
func (c *Collector) RecordEviction() {
	c.evictions.Add(context.Background(), 1, c.attrs)
}

// RecordExpiration records the removal of an expired entry.
func (c *Collector) RecordExpiration() {
	c.expirations.Add(context.Background(), 1, c.attrs)
}

// RecordStateChange records a breaker transition.
func (c *Collector) RecordStateChange(name string, from, to fortis.BreakerState) {
	c.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

// RecordRejection records a call refused by a breaker.
func (c *Collector) RecordRejection(name string) {
	c.rejections.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
	))
}

// Compile-time interface checks
var (
	_ fortis.MetricsCollector = (*Collector)(nil)
	_ fortis.BreakerObserver  = (*Collector)(nil)
)
