package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracing_EndpointForms(t *testing.T) {
	tests := []struct {
		endpoint string
		options  int
	}{
		{endpoint: "http://localhost:4317", options: 1},
		{endpoint: "https://collector.example:4317", options: 1},
		{endpoint: "localhost:4317", options: 2},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := len(endpointOption(tt.endpoint)); got != tt.options {
				t.Fatalf("expected %d options, got %d", tt.options, got)
			}
			shutdown, err := InitTracing(context.Background(), tt.endpoint)
			if err != nil {
				t.Fatalf("init: %v", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = shutdown(ctx)
		})
	}
}
