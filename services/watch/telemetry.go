package watch

import "feedback-notifier/lib/telemetry"

var tracer = telemetry.Tracer("feedbacknotifier.services.watch")
var meter = telemetry.Meter("feedbacknotifier.services.watch")

var checkCounter, _ = meter.Int64Counter("feedback.checks")
var changeCounter, _ = meter.Int64Counter("feedback.changes")
var diagnosticCounter, _ = meter.Int64Counter("feedback.diagnostics")
