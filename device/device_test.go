package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/diarized/device"
)

type stubBackend struct {
	name        device.Handle
	available   bool
	selfTestErr error
	clearErr    error
	selfTests   int
	clears      int
}

func (s *stubBackend) Name() device.Handle { return s.name }

func (s *stubBackend) Available(ctx context.Context) bool { return s.available }

func (s *stubBackend) SelfTest(ctx context.Context) error {
	s.selfTests++
	return s.selfTestErr
}

func (s *stubBackend) ClearCache(ctx context.Context) error {
	s.clears++
	return s.clearErr
}

func TestSelectCPUWhenNotRequested(t *testing.T) {
	b := &stubBackend{name: "mps", available: true}
	if dev := device.Select(context.Background(), false, b); dev != device.CPU {
		t.Fatalf("expected cpu, got %s", dev)
	}
	if b.selfTests != 0 {
		t.Fatal("self-test must not run when the accelerator is not requested")
	}
}

func TestSelectCPUWithNilBackend(t *testing.T) {
	if dev := device.Select(context.Background(), true, nil); dev != device.CPU {
		t.Fatalf("expected cpu, got %s", dev)
	}
}

func TestSelectCPUWhenUnavailable(t *testing.T) {
	b := &stubBackend{name: "mps", available: false}
	if dev := device.Select(context.Background(), true, b); dev != device.CPU {
		t.Fatalf("expected cpu, got %s", dev)
	}
	if b.selfTests != 0 {
		t.Fatal("self-test must not run against an unavailable accelerator")
	}
}

func TestSelectAcceleratorAfterPassingSelfTest(t *testing.T) {
	b := &stubBackend{name: "mps", available: true}
	dev := device.Select(context.Background(), true, b)
	if dev != device.Handle("mps") {
		t.Fatalf("expected mps, got %s", dev)
	}
	if b.selfTests != 1 {
		t.Fatalf("expected exactly one self-test, got %d", b.selfTests)
	}
	if b.clears != 1 {
		t.Fatalf("expected exactly one cache purge, got %d", b.clears)
	}
}

func TestSelectCPUOnSelfTestFailure(t *testing.T) {
	b := &stubBackend{
		name:        "mps",
		available:   true,
		selfTestErr: errors.New("allocation failed"),
	}
	if dev := device.Select(context.Background(), true, b); dev != device.CPU {
		t.Fatalf("expected cpu after failed self-test, got %s", dev)
	}
	if b.selfTests != 1 {
		t.Fatalf("one failure is decisive, got %d self-tests", b.selfTests)
	}
	if b.clears != 0 {
		t.Fatal("cache purge must not run after a failed self-test")
	}
}

func TestSelectCPUOnCachePurgeFailure(t *testing.T) {
	b := &stubBackend{
		name:      "mps",
		available: true,
		clearErr:  errors.New("purge failed"),
	}
	if dev := device.Select(context.Background(), true, b); dev != device.CPU {
		t.Fatalf("expected cpu after failed cache purge, got %s", dev)
	}
}
