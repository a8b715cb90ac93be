package sfoweb

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/sfoweb")
