// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConnectionMetric defines the instruments of a client connection
type ConnectionMetric struct {
	// Specifies the total number of operations sent
	operationsStarted metric.Int64Counter
	// Specifies the total number of operations completed successfully
	operationsCompleted metric.Int64Counter
	// Specifies the total number of operations that ended with an error
	operationsFailed metric.Int64Counter
	// Specifies the total number of operation retries
	operationsRetried metric.Int64Counter
	// Specifies the total number of operations that timed out
	operationsTimedOut metric.Int64Counter
	// Specifies the number of operations waiting or in flight
	operationsInFlight metric.Int64UpDownCounter
	// Specifies the operation latency in milliseconds
	operationDuration metric.Int64Histogram
	// Specifies the total number of reconnections
	reconnections metric.Int64Counter
	// Specifies the total number of heartbeat time outs
	heartbeatTimeouts metric.Int64Counter
	// Specifies the total number of dropped subscriptions
	subscriptionsDropped metric.Int64Counter
}

// NewConnectionMetric creates an instance of ConnectionMetric
func NewConnectionMetric(meter metric.Meter) (*ConnectionMetric, error) {
	connMetric := new(ConnectionMetric)
	var err error

	if connMetric.operationsStarted, err = meter.Int64Counter(
		"client_operations_started",
		metric.WithDescription("Total number of operations sent"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsStarted instrument, %w", err)
	}

	if connMetric.operationsCompleted, err = meter.Int64Counter(
		"client_operations_completed",
		metric.WithDescription("Total number of operations completed successfully"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsCompleted instrument, %w", err)
	}

	if connMetric.operationsFailed, err = meter.Int64Counter(
		"client_operations_failed",
		metric.WithDescription("Total number of operations ended with an error"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsFailed instrument, %w", err)
	}

	if connMetric.operationsRetried, err = meter.Int64Counter(
		"client_operations_retried",
		metric.WithDescription("Total number of operation retries"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsRetried instrument, %w", err)
	}

	if connMetric.operationsTimedOut, err = meter.Int64Counter(
		"client_operations_timed_out",
		metric.WithDescription("Total number of operations that timed out"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsTimedOut instrument, %w", err)
	}

	if connMetric.operationsInFlight, err = meter.Int64UpDownCounter(
		"client_operations_in_flight",
		metric.WithDescription("Number of operations waiting or in flight"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationsInFlight instrument, %w", err)
	}

	if connMetric.operationDuration, err = meter.Int64Histogram(
		"client_operation_duration",
		metric.WithDescription("The latency of completed operations in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create operationDuration instrument, %w", err)
	}

	if connMetric.reconnections, err = meter.Int64Counter(
		"client_reconnections",
		metric.WithDescription("Total number of reconnections"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reconnections instrument, %w", err)
	}

	if connMetric.heartbeatTimeouts, err = meter.Int64Counter(
		"client_heartbeat_timeouts",
		metric.WithDescription("Total number of heartbeat time outs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create heartbeatTimeouts instrument, %w", err)
	}

	if connMetric.subscriptionsDropped, err = meter.Int64Counter(
		"client_subscriptions_dropped",
		metric.WithDescription("Total number of dropped subscriptions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create subscriptionsDropped instrument, %w", err)
	}

	return connMetric, nil
}

func operationAttr(operation string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("operation", operation))
}

// OperationQueued records a submitted operation
func (x *ConnectionMetric) OperationQueued(ctx context.Context, operation string) {
	x.operationsInFlight.Add(ctx, 1, operationAttr(operation))
}

// OperationSent records an operation written to the wire
func (x *ConnectionMetric) OperationSent(ctx context.Context, operation string) {
	x.operationsStarted.Add(ctx, 1, operationAttr(operation))
}

// OperationRetried records a retry
func (x *ConnectionMetric) OperationRetried(ctx context.Context, operation string) {
	x.operationsRetried.Add(ctx, 1, operationAttr(operation))
}

// OperationDone records the end of an operation
func (x *ConnectionMetric) OperationDone(ctx context.Context, operation string, elapsed time.Duration, failed, timedOut bool) {
	attr := operationAttr(operation)
	x.operationsInFlight.Add(ctx, -1, attr)
	x.operationDuration.Record(ctx, elapsed.Milliseconds(), attr)
	switch {
	case timedOut:
		x.operationsTimedOut.Add(ctx, 1, attr)
		x.operationsFailed.Add(ctx, 1, attr)
	case failed:
		x.operationsFailed.Add(ctx, 1, attr)
	default:
		x.operationsCompleted.Add(ctx, 1, attr)
	}
}

// Reconnected records a reconnection attempt
func (x *ConnectionMetric) Reconnected(ctx context.Context) {
	x.reconnections.Add(ctx, 1)
}

// HeartbeatTimedOut records a dead connection
func (x *ConnectionMetric) HeartbeatTimedOut(ctx context.Context) {
	x.heartbeatTimeouts.Add(ctx, 1)
}

// SubscriptionDropped records a dropped subscription with its reason
func (x *ConnectionMetric) SubscriptionDropped(ctx context.Context, reason string) {
	x.subscriptionsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
