package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tp, err := InitTracer(ctx, "todone-server", "localhost:4318")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := Shutdown(shutdownCtx, tp); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestShutdown_NilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown with nil provider should not error, got: %v", err)
	}
}
