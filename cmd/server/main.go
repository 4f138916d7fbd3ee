package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertyreport/config"
	"propertyreport/internal/api"
	"propertyreport/internal/database"
	"propertyreport/internal/geocoding"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/processor"
	"propertyreport/internal/queue"
	"propertyreport/internal/report"
	"propertyreport/internal/scheduler"
	"propertyreport/internal/telegram"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.NewLogger(os.Stdout)
	gin.SetMode(gin.ReleaseMode)

	if cfg.CitiesFile != "" {
		if err := config.LoadCitiesFile(cfg.CitiesFile); err != nil {
			logger.WithError(err).Fatal("Failed to load cities file")
		}
	}
	logger.WithField("cities", config.GetCityNames()).Info("City catalogue loaded")

	logger.Infof("Using database at: %s", cfg.DBPath)
	store, err := database.NewStore(cfg.DBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	tg := telegram.NewService(logger)
	tg.UpdateConfig(models.TelegramConfig{
		IsEnabled: cfg.Telegram.Enabled,
		BotToken:  cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
		APIURL:    cfg.Telegram.APIURL,
	})

	classifier := images.NewClassifier(config.PlaceNames(cfg.PlaceNames...)...)
	generator := pipeline.NewGenerator(pipeline.Options{
		Brand: report.Brand{
			Title:    cfg.Brand.Title,
			Tagline:  cfg.Brand.Tagline,
			LogoPath: cfg.Brand.LogoPath,
		},
		Classifier: classifier,
		Notifier:   tg,
	}, logger)

	locator := geocoding.NewProvider(geocoding.OptionsFromConfig(cfg), store, logger)

	jobs := queue.NewJobQueue(cfg.Jobs.QueueSize, logger)
	proc := processor.NewProcessor(store, generator, jobs, cfg, logger)
	proc.Start()

	cleaner := scheduler.NewScheduler(store, scheduler.Options{
		Interval:  cfg.Jobs.CleanupInterval,
		LookupTTL: cfg.Lookup.CacheTTL,
		JobTTL:    cfg.Jobs.RecordTTL,
	}, logger)
	cleaner.Start()

	handler := api.NewHandler(api.Deps{
		Generator:  generator,
		Classifier: classifier,
		Locator:    locator,
		Jobs:       proc,
		Store:      store,
		Telegram:   tg,
		OutputDir:  cfg.OutputDir,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(handler, cfg.CORSOrigins),
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	cleaner.Stop()
	proc.Stop()
	logger.Info("Server stopped")
}
