package ebay

import "feedback-notifier/lib/telemetry"

var tracer = telemetry.Tracer("feedbacknotifier.lib.scrapers.ebay")
