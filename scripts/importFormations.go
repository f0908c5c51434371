package main

import (
	"code212/config"
	"code212/database"
	"code212/services/catalog"
	"code212/utils/logger"
	"context"
	"flag"
	"log"
	"os"
)

func main() {
	path := flag.String("file", "formations.csv", "catalogue CSV, one row per module")
	publish := flag.Bool("publish", false, "publish every imported formation")
	flag.Parse()

	config.LoadConfig()
	appLog, err := logger.New(config.AppConfig.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb(config.AppConfig)

	file, err := os.Open(*path)
	if err != nil {
		appLog.Fatal("failed to open CSV file", "file", *path, "error", err)
	}
	defer file.Close()

	svc := catalog.New(database.Database.Db, appLog)
	report, err := svc.ImportCSV(context.Background(), file, catalog.ImportOptions{Publish: *publish})
	if err != nil {
		appLog.Fatal("import failed", "file", *path, "error", err)
	}
	appLog.Info("import complete",
		"formations_created", report.FormationsCreated,
		"formations_updated", report.FormationsUpdated,
		"modules_created", report.ModulesCreated,
		"modules_updated", report.ModulesUpdated,
		"skipped", report.Skipped)
}
