package main

import (
	"context"
	"log"
	"os"

	"eato/internal/config"
	"eato/internal/db"
	menurepo "eato/internal/repository/menu"
	"eato/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, 0)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, menurepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied items=%d", n)
}
