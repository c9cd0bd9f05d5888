// Package config handles configuration for the CLI client.
package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

// Config holds runtime settings for the authgate CLI client.
type Config struct {
	ServerEndpointAddr string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
}

// LoadConfig builds a Config by applying defaults, then overlaying the
// environment and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("SERVER_ADDR"); ok && v != "" {
		config.ServerEndpointAddr = v
	}
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-s string   server base URL (e.g., "http://localhost:8080")
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.ServerEndpointAddr, "s", config.ServerEndpointAddr, "server base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
