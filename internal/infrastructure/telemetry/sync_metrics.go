package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics type is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// SyncMetrics records the outcome of sync runs and remote requests.
//
// Metrics:
//   - sync_runs_total{sync_type, sync_status}
//   - sync_items_total{sync_type}
//   - sync_item_failures_total{sync_type, error_code, soft}
//   - sync_duration_seconds{sync_type}
//   - sync_last_item_count{sync_type}
//   - aralco_requests_total{aralco.endpoint, http.status_code}
//   - aralco_request_duration_seconds{aralco.endpoint}
type SyncMetrics struct {
	runs            metric.Int64Counter
	items           metric.Int64Counter
	failures        metric.Int64Counter
	duration        metric.Float64Histogram
	lastCount       metric.Int64Gauge
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewSyncMetrics creates the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &SyncMetrics{}
	var err error
	counter := func(name, description, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create counter %s: %w", name, err)
		}
		return c
	}
	seconds := func(name, description string, buckets []float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(description),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create histogram %s: %w", name, err)
		}
		return h
	}

	m.runs = counter("sync_runs_total", "Number of sync runs by type and status", "{run}")
	m.items = counter("sync_items_total", "Number of items processed by sync runs", "{item}")
	m.failures = counter("sync_item_failures_total", "Number of items that failed to sync", "{item}")
	m.duration = seconds("sync_duration_seconds", "Duration of sync runs", SyncDurationBuckets)
	m.requests = counter("aralco_requests_total", "Number of requests made to the Aralco API", "{request}")
	m.requestDuration = seconds("aralco_request_duration_seconds", "Duration of Aralco API requests", RemoteDurationBuckets)
	if err != nil {
		return nil, err
	}

	m.lastCount, err = meter.Int64Gauge("sync_last_item_count",
		metric.WithDescription("Items processed by the latest run of each sync type"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge sync_last_item_count: %w", err)
	}
	return m, nil
}

// RecordSync records one finished run. A run that returned an error is
// counted with status FAILED whatever its partial result says.
func (m *SyncMetrics) RecordSync(ctx context.Context, syncType integration.SyncType, result *integration.SyncResult, err error) {
	typeAttr := AttrSyncType.String(syncType.String())
	byType := metric.WithAttributes(typeAttr)

	status := integration.SyncStatusFailed
	if err == nil && result != nil {
		status = result.Status
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(typeAttr, AttrSyncStatus.String(string(status))))

	if result == nil {
		return
	}
	m.items.Add(ctx, int64(result.TotalCount), byType)
	m.duration.Record(ctx, result.Duration.Seconds(), byType)
	if err == nil {
		m.lastCount.Record(ctx, int64(result.TotalCount), byType)
	}
	for _, f := range result.FailedItems {
		m.failures.Add(ctx, 1, metric.WithAttributes(typeAttr, AttrErrorCode.String(f.ErrorCode), AttrSoft.Bool(f.Soft)))
	}
}

// RemoteRequest returns a function that records a remote request when called
// with the final status code. Status 0 means the request never completed.
func (m *SyncMetrics) RemoteRequest(ctx context.Context, endpoint string) func(status int) {
	start := time.Now()
	return func(status int) {
		endpointAttr := AttrRemoteEndpoint.String(endpoint)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(endpointAttr))
		m.requests.Add(ctx, 1, metric.WithAttributes(endpointAttr, AttrHTTPStatusCode.Int(status)))
	}
}
