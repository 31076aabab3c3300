package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
)

func main() {
	configPath := flag.String("config", config.DEFAULT_CONFIG_PATH, "path to the TOML configuration")
	debug := flag.Bool("debug", false, "debug logging, validation layers and shader hot reload")
	flag.Parse()

	os.Exit(run(*configPath, *debug))
}

func run(configPath string, debug bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		core.LogError(err.Error())
		return 1
	}
	if debug {
		cfg.Application.LogLevel = "debug"
		cfg.Renderer.EnableValidation = true
		cfg.Assets.HotReload = true
	}
	core.LogSetLevel(cfg.Application.LogLevel)

	// signals end the run loop through its context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	e := engine.New(cfg)
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		core.LogError("engine initialization failed: %s", err)
		return 1
	}
	if err := e.Run(ctx); err != nil {
		core.LogError(err.Error())
		return 1
	}
	return 0
}
