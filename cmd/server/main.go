package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/syncbox/internal/buildinfo"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/server"
	"github.com/dmitrijs2005/syncbox/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
