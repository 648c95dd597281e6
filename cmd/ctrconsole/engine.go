package main

import (
	"context"
	"time"

	"pkt.systems/ctrconsole/internal/appconfig"
	"pkt.systems/ctrconsole/internal/engine"
)

func engineConfig(cfg appconfig.Config) engine.Config {
	return engine.Config{
		Address:     cfg.Engine.Address,
		APIVersion:  cfg.Engine.APIVersion,
		Timeout:     time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		ExecCommand: cfg.Terminal.ExecCommand,
	}
}

// loadEngine reads the config at cfgPath and connects to the engine it names.
func loadEngine(ctx context.Context, cfgPath string) (appconfig.Config, *engine.Client, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return appconfig.Config{}, nil, err
	}
	eng, err := engine.New(ctx, engineConfig(cfg))
	if err != nil {
		return appconfig.Config{}, nil, err
	}
	return cfg, eng, nil
}

func followInterval(cfg appconfig.Config) time.Duration {
	return time.Duration(cfg.Terminal.FollowSeconds) * time.Second
}
