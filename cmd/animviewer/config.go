package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the viewer configuration. Every key can also be set from the
// environment with the ANIMVIEWER_ prefix.
type Config struct {
	Definition string  `mapstructure:"definition"`
	PrefabsDir string  `mapstructure:"prefabsDir"`
	SaveDir    string  `mapstructure:"saveDir"`
	Watch      bool    `mapstructure:"watch"`
	Width      int     `mapstructure:"width"`
	Height     int     `mapstructure:"height"`
	TPS        int     `mapstructure:"tps"`
	Scale      float64 `mapstructure:"scale"`
	LogLevel   string  `mapstructure:"logLevel"`
	LogFormat  string  `mapstructure:"logFormat"`
}

// loadConfig reads path if it exists and fills the rest from defaults.
func loadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("definition", "humanoid.yaml")
	v.SetDefault("prefabsDir", "prefabs")
	v.SetDefault("saveDir", ".")
	v.SetDefault("watch", true)
	v.SetDefault("width", 640)
	v.SetDefault("height", 480)
	v.SetDefault("tps", 60)
	v.SetDefault("scale", 2.0)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")

	v.SetEnvPrefix("ANIMVIEWER")
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("animviewer: read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("animviewer: decode config: %w", err)
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	return cfg, nil
}
