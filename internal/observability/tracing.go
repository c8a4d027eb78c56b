package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/danmuck/ibctl"

// Tracer returns the process tracer; spans are no-ops until a provider is installed.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
