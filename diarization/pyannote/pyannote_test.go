package pyannote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/diarized/device"
	"github.com/skillsenselab/diarized/diarization"
	"github.com/skillsenselab/diarized/diarization/pyannote"
)

func newRuntimeServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *pyannote.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := pyannote.NewClient(pyannote.Config{
		BaseURL:     srv.URL,
		Accelerator: "mps",
	})
	return srv, client
}

func TestAvailableParsesHealth(t *testing.T) {
	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":                "ok",
			"accelerator_available": true,
		})
	})
	if !client.Available(context.Background()) {
		t.Fatal("expected accelerator available")
	}
}

func TestAvailableFalseForCPUOnlyRuntime(t *testing.T) {
	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":                "ok",
			"accelerator_available": false,
		})
	})
	if client.Available(context.Background()) {
		t.Fatal("a healthy CPU-only runtime must not report an accelerator")
	}
}

func TestAvailableFalseWhenUnreachable(t *testing.T) {
	client := pyannote.NewClient(pyannote.Config{BaseURL: "http://127.0.0.1:1"})
	if client.Available(context.Background()) {
		t.Fatal("expected unavailable when the runtime is unreachable")
	}
}

func TestSelfTestSendsDevice(t *testing.T) {
	var gotDevice string
	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/self-test" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Device string `json:"device"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotDevice = req.Device
		w.WriteHeader(http.StatusOK)
	})
	if err := client.SelfTest(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDevice != "mps" {
		t.Fatalf("expected device mps, got %q", gotDevice)
	}
}

func TestClearCacheError(t *testing.T) {
	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "allocator busy", http.StatusInternalServerError)
	})
	if err := client.ClearCache(context.Background()); err == nil {
		t.Fatal("expected error from failed cache purge")
	}
}

func TestPipelineApply(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "input_16k.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF-fake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/diarize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("device"); got != "mps" {
			t.Errorf("expected device mps, got %q", got)
		}
		if got := r.FormValue("batch_size"); got != "16" {
			t.Errorf("expected batch_size 16, got %q", got)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio part: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"speaker_id": "SPEAKER_00", "start_time": 0.5, "end_time": 2.25},
				{"speaker_id": "SPEAKER_01", "start_time": 2.25, "end_time": 4.0},
			},
		})
	})

	factory := client.PipelineFactory()
	p, err := factory(context.Background(), diarization.PipelineConfig{Device: "mps", BatchSize: 16})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	segments, err := p.Apply(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Speaker != "SPEAKER_00" || segments[0].Start != 0.5 || segments[0].End != 2.25 {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
}

func TestPipelineApplyRuntimeError(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "input_16k.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF-fake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "mps backend out of memory"})
	})

	p, err := client.PipelineFactory()(context.Background(), diarization.PipelineConfig{Device: "mps", BatchSize: 16})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	_, err = p.Apply(context.Background(), audioPath)
	if err == nil {
		t.Fatal("expected error from runtime")
	}
	if !diarization.IsMemoryError(err) {
		t.Fatalf("runtime memory wording should classify as memory error: %v", err)
	}
}

func TestPipelineBindRetargetsDevice(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "input_16k.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF-fake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	var gotDevice string
	_, client := newRuntimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		gotDevice = r.FormValue("device")
		json.NewEncoder(w).Encode(map[string]any{"segments": []map[string]any{}})
	})

	p, err := client.PipelineFactory()(context.Background(), diarization.PipelineConfig{Device: "mps", BatchSize: 16})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if err := p.Bind(context.Background(), device.CPU); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := p.Apply(context.Background(), audioPath); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if gotDevice != "cpu" {
		t.Fatalf("expected rebound device cpu, got %q", gotDevice)
	}
}

func TestPipelineFactoryRejectsNonPositiveBatch(t *testing.T) {
	client := pyannote.NewClient(pyannote.Config{})
	if _, err := client.PipelineFactory()(context.Background(), diarization.PipelineConfig{Device: "mps"}); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}
