// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"
)

// GrammarConfig holds grammar induction settings.
type GrammarConfig struct {
	Lower         bool    `yaml:"lower"`
	Numerate      bool    `yaml:"numerate"`
	UnknownWords  bool    `yaml:"unknown_words"`
	ConfidenceZ   float64 `yaml:"confidence_z"`
	MaxLines      int     `yaml:"max_lines"`
	SkipMalformed bool    `yaml:"skip_malformed"`
}

// ParserConfig holds parsing settings.
type ParserConfig struct {
	StartSymbol string `yaml:"start_symbol"`
	MaxWords    int    `yaml:"max_words"`
	Workers     int    `yaml:"workers"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxConnections int    `yaml:"max_connections"`
	MaxBatch       int    `yaml:"max_batch"`
}

// Config is the root of pcfg.yaml.
type Config struct {
	Grammar GrammarConfig `yaml:"grammar"`
	Parser  ParserConfig  `yaml:"parser"`
	Server  ServerConfig  `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Grammar: GrammarConfig{
			UnknownWords: true,
			ConfidenceZ:  1.96,
		},
		Parser: ParserConfig{
			StartSymbol: "TOP",
			MaxWords:    15,
			Workers:     runtime.NumCPU(),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxConnections: 256,
			MaxBatch:       1000,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Grammar.ConfidenceZ < 0:
		return fmt.Errorf("grammar.confidence_z must not be negative")
	case c.Grammar.MaxLines < 0:
		return fmt.Errorf("grammar.max_lines must not be negative")
	case c.Parser.StartSymbol == "":
		return fmt.Errorf("parser.start_symbol must be set")
	case c.Parser.MaxWords < 0:
		return fmt.Errorf("parser.max_words must not be negative")
	case c.Parser.Workers < 1:
		return fmt.Errorf("parser.workers must be at least 1")
	case c.Server.MaxConnections < 0:
		return fmt.Errorf("server.max_connections must not be negative")
	case c.Server.MaxBatch < 0:
		return fmt.Errorf("server.max_batch must not be negative")
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
