package tracing_test

import (
	"testing"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/config"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/tracing"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	// Arrange
	cfg := config.OtelConfig{ServiceName: "ekommerce-test", SamplerRatio: 1}

	// Act
	shutdown, err := tracing.Setup(t.Context(), cfg, "test")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, span := otel.Tracer("test").Start(t.Context(), "span")
	require.True(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, shutdown(t.Context()))
}
