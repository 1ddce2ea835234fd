package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"eato/internal/config"
	"eato/internal/db"
	"eato/internal/importer"
	menurepo "eato/internal/repository/menu"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to menu CSV (key,name,description,category,price,image)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, 0)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, menurepo.NewPostgres(pool, logger))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d items: %v", count, err)
	}

	logger.Printf("imported %d menu items in %s", count, time.Since(start).Truncate(time.Millisecond))
}
