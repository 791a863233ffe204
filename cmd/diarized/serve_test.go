package main

import (
	"reflect"
	"testing"
)

func TestWorkerArgsForwardsConfigFile(t *testing.T) {
	// Loading always defaults worker_args to ["worker"]; that value must
	// not block forwarding the explicit config file.
	got := workerArgs([]string{"worker"}, "/etc/diarized/config.yml")
	want := []string{"worker", "--config", "/etc/diarized/config.yml"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWorkerArgsForwardsWhenUnset(t *testing.T) {
	got := workerArgs(nil, "/etc/diarized/config.yml")
	want := []string{"worker", "--config", "/etc/diarized/config.yml"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWorkerArgsKeepsOperatorOverride(t *testing.T) {
	override := []string{"worker", "--config", "/opt/worker.yml"}
	if got := workerArgs(override, "/etc/diarized/config.yml"); !reflect.DeepEqual(got, override) {
		t.Fatalf("operator override must pass through, got %v", got)
	}
}

func TestWorkerArgsWithoutConfigFile(t *testing.T) {
	got := workerArgs([]string{"worker"}, "")
	if !reflect.DeepEqual(got, []string{"worker"}) {
		t.Fatalf("expected args untouched without a config file, got %v", got)
	}
}
