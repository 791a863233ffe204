package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. DIARIZED_SERVER_PORT.
const envPrefix = "DIARIZED"

// configSearchPaths are tried in order when no explicit file is given.
var configSearchPaths = []string{
	"./config.yml",
	"./config/config.yml",
	"./cmd/diarized/config.yml",
}

// envSearchPaths are tried in order for a .env file.
var envSearchPaths = []string{
	".env",
	"config/.env",
}

// Load reads the configuration: YAML file (explicit path or first search
// hit), then a .env file, then environment variables, each layer
// overriding the previous. Defaults are applied and the result validated.
func Load(configFile string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = findFirst(configSearchPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The HuggingFace token never lives in the config file.
	if cfg.Pyannote.AuthToken == "" {
		cfg.Pyannote.AuthToken = os.Getenv("HF_TOKEN")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	if path := findFirst(envSearchPaths); path != "" {
		_ = godotenv.Load(path)
	}
}

func findFirst(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
