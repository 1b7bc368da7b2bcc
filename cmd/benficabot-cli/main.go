package main

import (
	"context"

	"benficabot/cmd/benficabot-cli/commands"
	"benficabot/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "benficabot-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
