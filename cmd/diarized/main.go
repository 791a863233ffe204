// Command diarized runs the speaker-diarization service.
//
// The serve subcommand starts the HTTP API. The hidden worker subcommand
// is the per-job child process the supervisor spawns by re-executing this
// binary; it is not meant to be invoked by hand.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "diarized",
	Short:         "Speaker diarization service with process-isolated inference",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
