package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudemu/engine/pkg/config"
	"github.com/cloudemu/engine/pkg/database"
	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	driver, _ := database.DriverFor(cfg.DatabaseURL)
	if err := runMigrations(db, driver); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
