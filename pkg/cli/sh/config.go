package sh

import (
	"flag"
	"os"
)

// Config defines where the console connects.
type Config struct {
	// LinkURL is connected on start when set.
	LinkURL string
	Variant string
}

var defaultConfig = Config{
	Variant: "lf",
}

func init() {
	if val := os.Getenv("ROBO_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("ROBO_VARIANT"); val != "" {
		defaultConfig.Variant = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Controller link URL")
	flag.StringVar(&defaultConfig.Variant, "variant", defaultConfig.Variant, "Protocol variant: lf or cr")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
