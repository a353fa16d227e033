// Package config holds runtime settings for the NoteVault CLI.
package config

import (
	"flag"
	"os"
)

type Config struct {
	// ServerAddr is the base URL of the vault server.
	ServerAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg, os.Args[1:])
	return cfg
}

func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("notevault", flag.ExitOnError)
	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "base URL of the vault server")
	_ = fs.Parse(args)
}
