package monitor

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("services/monitor")
var meter = otel.Meter("services/monitor")

var cycleCounter, _ = meter.Int64Counter(
	"monitor_cycles_total",
	metric.WithDescription("The total number of scheduled check cycles started."),
)
var portalFailureCounter, _ = meter.Int64Counter(
	"monitor_portal_failures_total",
	metric.WithDescription("The total number of portal failures, by class."),
)
var alertCounter, _ = meter.Int64Counter(
	"monitor_alerts_total",
	metric.WithDescription("The total number of alerts handed to the notifier."),
)
var deliveryFailureCounter, _ = meter.Int64Counter(
	"monitor_delivery_failures_total",
	metric.WithDescription("The total number of alerts the notifier failed to deliver."),
)
