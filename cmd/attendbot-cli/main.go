package main

import (
	"context"

	"attendbot/cmd/attendbot-cli/commands"
	"attendbot/internal/config"
	"attendbot/internal/logging"
	"attendbot/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, false)

	ctx := context.Background()
	tel, _ := telemetry.Setup(ctx, "attendbot-cli", cfg.OTLPEndpoint)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	commands.ExecuteContext(ctx, cfg)
}
