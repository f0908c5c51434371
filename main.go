package main

import (
	"code212/config"
	"code212/database"
	"code212/routers"
	"code212/utils"
	"code212/utils/logger"
	"code212/utils/render"
	"code212/utils/storage"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb(cfg)

	store, err := storage.New(context.Background(), storage.Options{
		Driver:        cfg.StorageDriver,
		Root:          cfg.StorageRoot,
		PublicBaseURL: cfg.PublicBaseURL,
		Bucket:        cfg.GCSBucket,
		CDNDomain:     cfg.GCSCDNDomain,
	})
	if err != nil {
		appLog.Fatal("storage init failed", "driver", cfg.StorageDriver, "error", err)
	}

	renderer, err := render.New(cfg.CertificateFont)
	if err != nil {
		appLog.Fatal("certificate renderer init failed", "error", err)
	}

	deps := routers.Deps{
		Config:    cfg,
		DB:        database.Database.Db,
		Log:       appLog,
		Renderer:  renderer,
		Storage:   store,
		AccessLog: true,
	}
	services := routers.NewServices(deps)
	app := routers.SetupApp(deps, services)

	if cfg.CertificateSweepCron != "" {
		scheduler, err := utils.InitializeCertificateScheduler(cfg.CertificateSweepCron, services.Certification, appLog)
		if err != nil {
			appLog.Fatal("certificate scheduler init failed", "error", err)
		}
		defer scheduler.Stop()
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLog.Info("shutting down")
		_ = app.Shutdown()
	}()

	appLog.Info("server is running", "port", cfg.Port, "db_driver", cfg.DBDriver, "storage", cfg.StorageDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Error("server stopped", "error", err)
	}
}
