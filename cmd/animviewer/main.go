// Command animviewer drives one machine definition per tick and draws the
// resulting pose as a 2D skeleton.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/animgraph/internal/logging"
	"github.com/milk9111/animgraph/prefabs"
	"golang.design/x/clipboard"
)

func main() {
	configPath := flag.String("config", "animviewer.yaml", "viewer config file")
	definition := flag.String("def", "", "machine definition in prefabs/ (overrides config)")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *definition != "" {
		cfg.Definition = *definition
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	prefabs.Dir = cfg.PrefabsDir

	s, err := newSession(cfg.Definition, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("definition", cfg.Definition).Msg("load machine")
	}
	v := newViewer(cfg, s, logger)

	if cfg.Watch {
		w, err := prefabs.NewWatcher(cfg.PrefabsDir, filepath.Join(cfg.PrefabsDir, "scripts"))
		if err != nil {
			logger.Warn().Err(err).Str("dir", cfg.PrefabsDir).Msg("hot reload disabled")
		} else {
			defer w.Close()
			v.watcher = w
		}
	}

	if err := clipboard.Init(); err != nil {
		logger.Warn().Err(err).Msg("clipboard unavailable")
	} else {
		v.clipboard = true
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("animviewer - " + cfg.Definition)
	ebiten.SetTPS(cfg.TPS)

	if err := ebiten.RunGame(v); err != nil {
		logger.Fatal().Err(err).Msg("run")
	}
}
