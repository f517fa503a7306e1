package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional file form of the server flags. Flags given on
// the command line win over file values.
type Config struct {
	Addr      string   `yaml:"addr"`
	ReplicaID string   `yaml:"replica_id"`
	Venues    []string `yaml:"venues"`
}

func defaultConfig() Config {
	return Config{Addr: ":8080"}
}

func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return config, nil
}
