package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("farmagent"),
		kong.Description("Autonomous farming-sim control core"),
		kongVars(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := kctx.Run(ctx)
	kctx.FatalIfErrorf(err)
}

func (v *VersionCmd) Run(ctx context.Context) error {
	fmt.Printf("farmagent version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
