package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"gopkg.in/yaml.v2"
)

// configuration gathers the web server's and the database's tweakable
// parameters; flags and environment variables take precedence over the
// optional YAML file.
type configuration struct {
	conf.Version
	Config struct {
		Path string `conf:"default:config.yml"`
	}
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:3000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		ShutdownTimeout time.Duration `conf:"default:5s"`
	}
	DB struct {
		Filename string `conf:"default:aggregator.db"`

		// Seed wipes the database and loads the demonstration fixture
		Seed bool `conf:"default:false"`
	}
	Debug bool `conf:"default:false"`
}

func loadConfiguration() (cfg configuration, err error) {
	cfg.Version.SVN = "0.1.0"
	cfg.Version.Desc = "link aggregator forum API"

	if err = conf.Parse(os.Args[1:], "AGGREGATOR", &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, usageErr := conf.Usage("AGGREGATOR", &cfg)
			if usageErr != nil {
				return cfg, fmt.Errorf("generating config usage: %w", usageErr)
			}
			fmt.Println(usage)
			return cfg, conf.ErrHelpWanted
		case conf.ErrVersionWanted:
			version, versionErr := conf.VersionString("AGGREGATOR", &cfg)
			if versionErr != nil {
				return cfg, fmt.Errorf("generating config version: %w", versionErr)
			}
			fmt.Println(version)
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// overlay the YAML file's values, when one exists at the configured path
	if contents, readErr := os.ReadFile(cfg.Config.Path); readErr == nil {
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %q: %w", cfg.Config.Path, err)
		}
	}

	return cfg, nil
}
