package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "thoughtnet-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "thoughtnet-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1,
	})
	require.NoError(t, err)

	span, ctx := NewSpan(context.Background(), "test.op", attribute.String("k", "v"))
	assert.NotNil(t, ctx)
	assert.NotEmpty(t, span.TraceID())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}

func TestSpanFinish_RecordsOutcome(t *testing.T) {
	before := counterValue(t, RelationshipOperations.WithLabelValues("test_finish", OutcomeFailure))

	span, _ := NewSpan(context.Background(), "test.finish")
	err := errors.New("boom")
	span.Finish("test_finish", &err)

	after := counterValue(t, RelationshipOperations.WithLabelValues("test_finish", OutcomeFailure))
	assert.Equal(t, before+1, after)

	okBefore := counterValue(t, RelationshipOperations.WithLabelValues("test_finish", OutcomeSuccess))
	span, _ = NewSpan(context.Background(), "test.finish")
	var nilErr error
	span.Finish("test_finish", &nilErr)
	assert.Equal(t, okBefore+1, counterValue(t, RelationshipOperations.WithLabelValues("test_finish", OutcomeSuccess)))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
