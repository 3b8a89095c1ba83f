package main

import (
	"context"
	"embed"

	"github.com/secondlife-exchange/exchange/pkg/config"
	"github.com/secondlife-exchange/exchange/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := migrator.RunMigrations(context.Background(), cfg.DatabaseURL, "matching", MigrationsFS); err != nil {
		panic(err)
	}
}
