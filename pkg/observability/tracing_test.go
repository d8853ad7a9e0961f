package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), TracingConfig{})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "stage")
	assert.False(t, span.SpanContext().IsValid())
	assert.False(t, span.IsRecording())
	EndSpan(span, nil)

	require.NoError(t, shutdown(context.Background()))
}

func TestSetupEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "i94dw-test",
		Writer:      &buf,
	})
	require.NoError(t, err)

	ctx, parent := StartSpan(context.Background(), "transform")
	_, child := StartSpan(ctx, "extract", attribute.Int("tables", 8))
	assert.True(t, child.SpanContext().IsValid())
	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	EndSpan(child, assert.AnError)
	EndSpan(parent, nil)

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, `"Name": "extract"`)
	assert.Contains(t, out, `"Name": "transform"`)
	assert.Contains(t, out, "i94dw-test")
	assert.Contains(t, out, assert.AnError.Error())

	// after shutdown spans are no-ops again
	_, span := StartSpan(context.Background(), "late")
	assert.False(t, span.IsRecording())
}
