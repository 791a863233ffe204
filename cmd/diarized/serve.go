package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/diarized/api"
	"github.com/skillsenselab/diarized/config"
	"github.com/skillsenselab/diarized/diarization/pyannote"
	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/server"
	"github.com/skillsenselab/diarized/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diarization HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging)
	log := logger.Get("main")

	// Spawned workers re-read configuration themselves; forward the
	// explicit config file so both processes see the same settings.
	cfg.Supervisor.WorkerArgs = workerArgs(cfg.Supervisor.WorkerArgs, configFile)

	runtime := pyannote.NewClient(cfg.Pyannote)
	sup := supervisor.New(cfg.Supervisor)
	handler := api.NewHandler(cfg.API, sup, runtime, cfg.Version)

	srv := server.New(cfg.Server, logger.GetGlobalLogger())
	srv.ApplyMiddleware()
	handler.Register(srv.GinEngine())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	log.Info("Service ready", map[string]interface{}{
		"addr":        srv.Addr(),
		"environment": cfg.Environment,
	})

	<-ctx.Done()
	log.Info("Shutdown signal received")
	return srv.Stop(context.Background())
}

// workerArgs decides the subcommand arguments spawned workers get. Config
// loading always defaults worker_args to ["worker"], so that value means
// "not overridden" and the explicit config file is appended to it; an
// operator-supplied worker_args is passed through untouched.
func workerArgs(current []string, configFile string) []string {
	if configFile == "" {
		return current
	}
	if len(current) == 0 || (len(current) == 1 && current[0] == "worker") {
		return []string{"worker", "--config", configFile}
	}
	return current
}
