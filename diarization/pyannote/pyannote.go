// Package pyannote implements diarization.Pipeline and device.Backend
// against the local Pyannote runtime sidecar's HTTP API. The sidecar owns
// the model weights and the accelerator; this client is deliberately thin
// so every fragile allocation stays on the far side of the socket.
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skillsenselab/diarized/device"
	"github.com/skillsenselab/diarized/diarization"
)

const (
	// BackendName is the provider name for the Pyannote runtime.
	BackendName = "pyannote"

	defaultBaseURL     = "http://localhost:8388"
	defaultTimeout     = 300 * time.Second
	defaultModel       = "pyannote/speaker-diarization-3.1"
	defaultAccelerator = "mps"
)

// Config holds configuration for the Pyannote runtime client.
type Config struct {
	// BaseURL is the runtime sidecar address.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model is the diarization model the runtime should load.
	Model string `yaml:"model" mapstructure:"model"`
	// Accelerator is the device handle the runtime's accelerator answers to.
	Accelerator string `yaml:"accelerator" mapstructure:"accelerator"`
	// Timeout bounds individual runtime calls.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// AuthToken is the HuggingFace token forwarded for gated model access.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Accelerator == "" {
		c.Accelerator = defaultAccelerator
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Client talks to the Pyannote runtime sidecar. It implements
// device.Backend; pipelines are created per job with NewPipeline.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a new Pyannote runtime client.
func NewClient(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the accelerator handle the runtime drives.
func (c *Client) Name() device.Handle {
	return device.Handle(c.cfg.Accelerator)
}

// Available reports whether the runtime is reachable and claims an
// accelerator. Reachability alone is not availability: a CPU-only runtime
// answers health checks too.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.AcceleratorAvailable
}

// SelfTest asks the runtime to allocate a small tensor on the accelerator,
// run one arithmetic op, and release it.
func (c *Client) SelfTest(ctx context.Context) error {
	return c.postDevice(ctx, "/device/self-test")
}

// ClearCache asks the runtime to purge the accelerator allocator cache.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.postDevice(ctx, "/device/cache/clear")
}

func (c *Client) postDevice(ctx context.Context, path string) error {
	payload, _ := json.Marshal(deviceRequest{Device: c.cfg.Accelerator})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("runtime request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("runtime error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// PipelineFactory returns a diarization.PipelineFactory backed by this client.
func (c *Client) PipelineFactory() diarization.PipelineFactory {
	return func(_ context.Context, cfg diarization.PipelineConfig) (diarization.Pipeline, error) {
		if cfg.BatchSize <= 0 {
			return nil, fmt.Errorf("pyannote: batch size must be positive (got %d)", cfg.BatchSize)
		}
		return &Pipeline{
			client:    c,
			device:    cfg.Device,
			batchSize: cfg.BatchSize,
		}, nil
	}
}

// Pipeline is one device-bound diarization session against the runtime.
type Pipeline struct {
	client    *Client
	device    device.Handle
	batchSize int
}

// Bind retargets the pipeline. The sidecar binds per request, so this only
// changes what the next Apply sends.
func (p *Pipeline) Bind(_ context.Context, dev device.Handle) error {
	p.device = dev
	return nil
}

// Apply sends the audio to the runtime and returns the raw speaker turns.
func (p *Pipeline) Apply(ctx context.Context, audioPath string) ([]diarization.Segment, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	_ = writer.WriteField("model", p.client.cfg.Model)
	_ = writer.WriteField("device", p.device.String())
	_ = writer.WriteField("batch_size", strconv.Itoa(p.batchSize))
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.client.cfg.BaseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if p.client.cfg.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.client.cfg.AuthToken)
	}

	resp, err := p.client.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, string(body))
	}

	var result diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", result.Error)
	}

	segments := make([]diarization.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = diarization.Segment{
			Start:   seg.StartTime,
			End:     seg.EndTime,
			Speaker: seg.SpeakerID,
		}
	}
	return segments, nil
}

// --- internal runtime API types ---

type healthResponse struct {
	Status               string `json:"status"`
	AcceleratorAvailable bool   `json:"accelerator_available"`
}

type deviceRequest struct {
	Device string `json:"device"`
}

type diarizeResponse struct {
	Segments []diarizeSegment `json:"segments"`
	Error    string           `json:"error,omitempty"`
}

type diarizeSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}
