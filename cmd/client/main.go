package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/panelkeeper/internal/client/cli"
	"github.com/dmitrijs2005/panelkeeper/internal/client/config"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

// Set with -ldflags "-X main.buildVersion=... -X main.buildDate=...".
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {
	fmt.Printf("panelkeeper %s (built %s)\n", buildVersion, buildDate)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
