package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/article-threads-api/internal/config"
	"github.com/article-threads-api/internal/database"
	"github.com/article-threads-api/migrations"
	"github.com/article-threads-api/pkg/logger"
)

func main() {
	version := flag.Uint("version", 0, "target schema version for the goto command")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-version N] up|down|goto\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = db.RunMigrations(migrations.FS)
	case "down":
		err = db.MigrateDown(migrations.FS)
	case "goto":
		err = db.MigrateToVersion(migrations.FS, *version)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
