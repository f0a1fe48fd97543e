// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// engineMetrics mirrors the instrumentation the teacher's DAG executor
// exposes, renamed to the flow engine's own instrument names.
type engineMetrics struct {
	nodeDuration metric.Float64Histogram
	nodeSuccess  metric.Int64Counter
	nodeFailure  metric.Int64Counter
	activeNodes  metric.Int64UpDownCounter
	flowDuration metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *engineMetrics
)

func initMetrics() *engineMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/aleutian-labs/repowiki/internal/flow")
		m := &engineMetrics{}
		m.nodeDuration, _ = meter.Float64Histogram(
			"flow_node_duration_seconds",
			metric.WithDescription("duration of a single node Execute call"),
		)
		m.nodeSuccess, _ = meter.Int64Counter(
			"flow_node_success_total",
			metric.WithDescription("count of nodes that completed without error"),
		)
		m.nodeFailure, _ = meter.Int64Counter(
			"flow_node_failure_total",
			metric.WithDescription("count of nodes that exhausted retries"),
		)
		m.activeNodes, _ = meter.Int64UpDownCounter(
			"flow_active_nodes",
			metric.WithDescription("nodes currently executing"),
		)
		m.flowDuration, _ = meter.Float64Histogram(
			"flow_pipeline_duration_seconds",
			metric.WithDescription("duration of an entire flow run"),
		)
		metricsInst = m
	})
	return metricsInst
}
