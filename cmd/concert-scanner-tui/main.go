package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/concert-scanner/internal/config"
	"github.com/handiism/concert-scanner/internal/extract"
	"github.com/handiism/concert-scanner/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	envFlag := flag.String("env", ".env", "Path to a dotenv file with credentials")
	flag.Parse()

	if err := run(*configFlag, *envFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if err := config.LoadEnvFiles(envPath); err != nil {
		return err
	}

	settings := config.DefaultSettings()
	if configPath != "" {
		var err error
		if settings, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	extractor, err := extract.New(context.Background(), settings, config.LoadCredentials())
	if err != nil {
		return err
	}
	if c, ok := extractor.(io.Closer); ok {
		defer c.Close()
	}

	return tui.Run(settings, extractor)
}
