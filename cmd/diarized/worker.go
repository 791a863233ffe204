package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/diarized/config"
	"github.com/skillsenselab/diarized/diarization/pyannote"
	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/worker"
)

var (
	workerInput       string
	workerArtifact    string
	workerAccelerator bool
	workerBatchSize   int
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run one diarization job in this process (spawned by the supervisor)",
	Hidden: true,
	RunE:   runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerInput, "input", "", "audio file to diarize")
	workerCmd.Flags().StringVar(&workerArtifact, "artifact", "", "path to publish the result document")
	workerCmd.Flags().BoolVar(&workerAccelerator, "accelerator", false, "prefer the accelerator device")
	workerCmd.Flags().IntVar(&workerBatchSize, "batch-size", worker.DefaultBatchSize, "embedding batch size on the accelerator")
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	// SIGTERM is the supervisor's graceful reclaim; cancel everything the
	// runner is doing and let the deferred cleanup run before exit.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runtime := pyannote.NewClient(cfg.Pyannote)
	runner := worker.NewRunner(cfg.Worker, runtime, runtime.PipelineFactory())

	return runner.Run(ctx, worker.Params{
		InputPath:         workerInput,
		ArtifactPath:      workerArtifact,
		PreferAccelerated: workerAccelerator,
		BatchSize:         workerBatchSize,
	})
}
