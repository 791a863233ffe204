// Package api implements the diarization HTTP endpoints on top of the
// process supervisor. Handlers translate uploads and form fields into
// supervisor jobs and job outcomes into the flat JSON the API speaks.
package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/diarized/device"
	"github.com/skillsenselab/diarized/diarization"
	apperrors "github.com/skillsenselab/diarized/errors"
	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/supervisor"
	"github.com/skillsenselab/diarized/util"
	"github.com/skillsenselab/diarized/validation"
)

// Handler serves the diarization API.
type Handler struct {
	cfg     Config
	sup     *supervisor.Supervisor
	backend device.Backend
	version string
	log     *logger.Logger
}

// NewHandler creates the API handler. backend may be nil when no
// accelerator runtime is configured.
func NewHandler(cfg Config, sup *supervisor.Supervisor, backend device.Backend, version string) *Handler {
	cfg.ApplyDefaults()
	return &Handler{
		cfg:     cfg,
		sup:     sup,
		backend: backend,
		version: version,
		log:     logger.Get("api"),
	}
}

// diarizeParams are the optional form fields of a diarization request.
type diarizeParams struct {
	UseAccelerator bool `form:"use_accelerator"`
	BatchSize      int  `form:"batch_size" validate:"gt=0,lte=512"`
	Timeout        int  `form:"timeout" validate:"gt=0"` // seconds
}

// Diarize handles POST /api/v1/diarize.
func (h *Handler) Diarize(c *gin.Context) {
	start := time.Now()

	file, err := c.FormFile("audio")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondAppError(c, apperrors.PayloadTooLarge(h.cfg.MaxUploadSize))
			return
		}
		respondAppError(c, apperrors.MissingField("audio"))
		return
	}
	if file.Filename == "" {
		respondAppError(c, apperrors.Validation("Empty filename"))
		return
	}

	ext := util.FileExtension(file.Filename)
	if !h.extensionAllowed(ext) {
		respondAppError(c, apperrors.UnsupportedMedia(ext, h.cfg.AllowedExtensions))
		return
	}

	params, appErr := h.parseParams(c)
	if appErr != nil {
		respondAppError(c, appErr)
		return
	}

	tempPath, saveErr := h.saveUpload(c, file)
	if saveErr != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(saveErr, &maxBytesErr) {
			respondAppError(c, apperrors.PayloadTooLarge(h.cfg.MaxUploadSize))
			return
		}
		h.log.Error("Failed to persist upload", logger.ErrorFields("save_upload", saveErr))
		respondAppError(c, apperrors.Internal(saveErr))
		return
	}
	defer os.Remove(tempPath)

	deadline := time.Duration(params.Timeout) * time.Second
	h.log.Info("Diarization request", map[string]interface{}{
		"file":        file.Filename,
		"size":        file.Size,
		"accelerator": params.UseAccelerator,
		"batch_size":  params.BatchSize,
		"timeout":     deadline.String(),
	})

	outcome := h.sup.Execute(c.Request.Context(), supervisor.Job{
		InputPath:         tempPath,
		PreferAccelerated: params.UseAccelerator,
		BatchSize:         params.BatchSize,
		Deadline:          deadline,
	})

	elapsed := time.Since(start)
	switch outcome.Kind {
	case supervisor.OutcomeSuccess:
		h.respondSuccess(c, outcome, elapsed)
	case supervisor.OutcomeTimeout:
		respondJobError(c, apperrors.JobTimeout(deadline.String()), elapsed)
	case supervisor.OutcomeCrashed:
		respondJobError(c, apperrors.JobCrashed(outcome.ExitCode), elapsed)
	default:
		respondJobError(c, apperrors.JobFailed(outcome.Reason), elapsed)
	}
}

func (h *Handler) respondSuccess(c *gin.Context, outcome supervisor.Outcome, elapsed time.Duration) {
	speakers := outcome.Speakers
	if speakers == nil {
		speakers = []string{}
	}
	segments := outcome.Segments
	if segments == nil {
		segments = []diarization.Segment{}
	}

	body := gin.H{
		"success":         true,
		"request_time":    elapsed.Seconds(),
		"processing_time": outcome.ProcessingTime.Seconds(),
		"speakers":        speakers,
		"segments":        segments,
		"total_segments":  len(segments),
		"device_used":     outcome.DeviceUsed,
		"fallback_cpu":    outcome.FallbackCPU,
	}
	if outcome.FallbackCPU {
		h.log.Warn("Accelerator OOM, job completed on CPU fallback")
		body["warning"] = "Accelerator out of memory, processed on CPU"
	}
	c.JSON(http.StatusOK, body)
}

// parseParams reads the optional form fields, applying defaults and the
// configured timeout cap. The source's use_mps field is accepted as an
// alias for use_accelerator.
func (h *Handler) parseParams(c *gin.Context) (*diarizeParams, *apperrors.AppError) {
	params := &diarizeParams{
		UseAccelerator: true,
		BatchSize:      h.cfg.DefaultBatchSize,
		Timeout:        int(h.cfg.DefaultTimeout.Seconds()),
	}

	accel := c.PostForm("use_accelerator")
	if accel == "" {
		accel = c.PostForm("use_mps")
	}
	if accel != "" {
		b, err := strconv.ParseBool(accel)
		if err != nil {
			return nil, apperrors.Validation("use_accelerator: must be true or false")
		}
		params.UseAccelerator = b
	}

	if raw := c.PostForm("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.Validation("batch_size: must be an integer")
		}
		params.BatchSize = n
	}
	if raw := c.PostForm("timeout"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.Validation("timeout: must be an integer number of seconds")
		}
		params.Timeout = n
	}

	if err := validation.Validate(params); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Validation(err.Error())
	}
	if max := int(h.cfg.MaxTimeout.Seconds()); params.Timeout > max {
		return nil, apperrors.Validation(fmt.Sprintf("timeout: must be at most %d seconds", max))
	}
	return params, nil
}

func (h *Handler) extensionAllowed(ext string) bool {
	for _, allowed := range h.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// saveUpload persists the upload to a uniquely-named temp path the worker
// process can read. The caller removes it when the job is done.
func (h *Handler) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dir := h.cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("upload-%s_%s", uuid.New().String()[:8], util.SanitizeFilename(file.Filename))
	dst := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return dst, nil
}
