package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReadyAllHealthy(t *testing.T) {
	svc := NewService()
	svc.Register("mongo", func(ctx context.Context) error { return nil })
	svc.Register("redis", func(ctx context.Context) error { return nil })

	report := svc.Ready(context.Background())
	if !report.OK || len(report.Checks) != 2 || report.Checks["mongo"] != "ok" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestReadyReportsFailures(t *testing.T) {
	svc := NewService()
	svc.timeout = 10 * time.Millisecond
	svc.Register("postgres", func(ctx context.Context) error { return errors.New("dial tcp: refused") })
	svc.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	svc.Register("mongo", func(ctx context.Context) error { return nil })

	report := svc.Ready(context.Background())
	if report.OK {
		t.Fatalf("expected not ready")
	}
	if report.Checks["postgres"] != "dial tcp: refused" {
		t.Fatalf("unexpected postgres result: %q", report.Checks["postgres"])
	}
	if report.Checks["slow"] != context.DeadlineExceeded.Error() {
		t.Fatalf("slow check must time out, got %q", report.Checks["slow"])
	}
	if report.Checks["mongo"] != "ok" {
		t.Fatalf("healthy checks still report ok")
	}
}

func TestReadyWithoutChecks(t *testing.T) {
	report := NewService().Ready(context.Background())
	if !report.OK || len(report.Checks) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !NewService().Status()["ok"] {
		t.Fatalf("liveness must be ok")
	}
}
