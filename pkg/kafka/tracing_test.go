package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaderCarrier_SetAndGet(t *testing.T) {
	headers := []kafka.Header{
		{Key: "existing", Value: []byte("value1")},
	}
	carrier := NewHeaderCarrier(&headers)

	if got := carrier.Get("existing"); got != "value1" {
		t.Errorf("Get(existing) = %q, want %q", got, "value1")
	}
	if got := carrier.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}

	carrier.Set("new-key", "new-value")
	if got := carrier.Get("new-key"); got != "new-value" {
		t.Errorf("Get(new-key) = %q, want %q", got, "new-value")
	}

	carrier.Set("existing", "updated")
	if got := carrier.Get("existing"); got != "updated" {
		t.Errorf("Get(existing) after update = %q, want %q", got, "updated")
	}
	if len(headers) != 2 {
		t.Errorf("len(headers) = %d, want 2", len(headers))
	}
}

func TestKafkaHeaderCarrier_Keys(t *testing.T) {
	headers := []kafka.Header{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}
	keys := NewHeaderCarrier(&headers).Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
}

func TestKafkaHeaderCarrier_EmptyHeaders(t *testing.T) {
	headers := []kafka.Header{}
	carrier := NewHeaderCarrier(&headers)

	if keys := carrier.Keys(); len(keys) != 0 {
		t.Errorf("Keys() on empty headers = %d, want 0", len(keys))
	}
	if got := carrier.Get("anything"); got != "" {
		t.Errorf("Get on empty headers = %q, want empty", got)
	}
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(t.Context(), sc)

	w := &fakeWriter{}
	p := newProducer(w, nil, nil)
	event, err := NewEvent("cart.updated", "sess-1", "cart", "cart-service", nil)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := p.Publish(ctx, "ecommerce.cart.updated", event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	carrier := NewHeaderCarrier(&w.msgs[0].Headers)
	extracted := trace.SpanContextFromContext(
		propagation.TraceContext{}.Extract(t.Context(), carrier),
	)
	if extracted.TraceID() != traceID {
		t.Errorf("extracted trace id = %s, want %s", extracted.TraceID(), traceID)
	}
}
