// Package config defines the service configuration tree and its loader.
// Every section follows the ApplyDefaults/Validate convention; values come
// from an optional YAML file, an optional .env file, and environment
// variables, in increasing priority.
package config

import (
	"fmt"

	"github.com/skillsenselab/diarized/api"
	"github.com/skillsenselab/diarized/diarization/pyannote"
	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/server"
	"github.com/skillsenselab/diarized/supervisor"
	"github.com/skillsenselab/diarized/worker"
)

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config     `yaml:"logging" mapstructure:"logging"`
	Server     server.Config     `yaml:"server" mapstructure:"server"`
	API        api.Config        `yaml:"api" mapstructure:"api"`
	Supervisor supervisor.Config `yaml:"supervisor" mapstructure:"supervisor"`
	Worker     worker.Config     `yaml:"worker" mapstructure:"worker"`
	Pyannote   pyannote.Config   `yaml:"pyannote" mapstructure:"pyannote"`
}

// ApplyDefaults applies default values across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "diarized"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}

	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Supervisor.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.Pyannote.ApplyDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Supervisor.Validate(); err != nil {
		return err
	}
	return nil
}
