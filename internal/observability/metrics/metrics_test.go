package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("analysis_type", "deep"),
		attribute.String("domain", "example.com"),
		attribute.String("platform", "ga4"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "analysis_type" && attrs[1].Key != "analysis_type" {
		t.Fatalf("expected analysis_type to be retained")
	}
	if attrs[0].Key != "platform" && attrs[1].Key != "platform" {
		t.Fatalf("expected platform to be retained")
	}
}
