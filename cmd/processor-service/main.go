package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/zykor/platform/pkg/common/config"
	"github.com/zykor/platform/pkg/common/database"
	"github.com/zykor/platform/pkg/common/kafka"
	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/contahub"
	"github.com/zykor/platform/pkg/loader"
	"github.com/zykor/platform/pkg/processor"
	"github.com/zykor/platform/pkg/sympla"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	models := append(contahub.Models(), sympla.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate pipeline tables")
	}

	catalog, err := contahub.LoadCatalog(cfg.ReportCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load report catalog")
	}

	cache := processor.NewResultCache(database.GetRedis(), cfg.ProcessorCacheTTL)

	raw := contahub.NewRawRepository(db)
	ld := loader.New(loader.NewGormInserter(db), cfg.BatchPause)
	svc := processor.NewService(raw, ld, catalog, cache)
	handler := processor.NewHandler(svc)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.RegisterRoutes(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ConsumerEnabled {
		consumer := kafka.NewConsumer(cfg.CaptureTopic, cfg.KafkaGroupID)
		defer consumer.Close()

		producer := kafka.NewProducer(cfg.ProcessedTopic)
		defer producer.Close()

		loop := processor.NewConsumerLoop(svc, consumer, producer)
		go func() {
			logger.Log.WithField("topic", cfg.CaptureTopic).Info("Capture consumer started")
			if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("capture consumer stopped")
			}
		}()
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Processor Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Processor Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	database.CloseRedis()
	logger.Log.Info("Processor Service stopped")
}
