package webcat

import "webcat-submit/internal/components/telemetry"

var tracer = telemetry.Tracer("webcat-submit.internal.scrapers.webcat")
