package observability

import "go.opentelemetry.io/otel"

// Tracer covers the audit pipeline stages. Without an installed provider it
// is a no-op, so instrumentation costs nothing in the plain CLI path.
var Tracer = otel.Tracer("crmaudit")
