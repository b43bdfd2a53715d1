package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/syncbox/internal/buildinfo"
	"github.com/dmitrijs2005/syncbox/internal/client/cli"
	"github.com/dmitrijs2005/syncbox/internal/client/config"
	"github.com/dmitrijs2005/syncbox/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
