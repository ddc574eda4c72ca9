package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"flowguard/db"
	qhttp "flowguard/http"
	"flowguard/logging"
	"flowguard/ml"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Models struct {
		Dir       string `yaml:"dir"`
		Reload    bool   `yaml:"reload"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"models"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log logging.Config `yaml:"log"`
}

func main() {
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.CloseDB()
	logger.Info("database initialized", zap.String("path", config.Database.Path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Artifacts load whole or not at all; the service refuses to start on
	// a partial set.
	var provider ml.RegistryProvider
	if config.Models.Reload {
		reloader, err := ml.NewReloader(config.Models.Dir, logger)
		if err != nil {
			logger.Fatal("failed to load model artifacts", zap.Error(err))
		}
		defer reloader.Close()
		go reloader.Run(ctx)
		provider = reloader
	} else {
		registry, err := ml.LoadRegistry(config.Models.Dir)
		if err != nil {
			logger.Fatal("failed to load model artifacts", zap.Error(err))
		}
		provider = ml.NewStaticRegistry(registry)
	}
	logger.Info("model artifacts loaded",
		zap.String("dir", config.Models.Dir),
		zap.Int("num_features", provider.Registry().Contract().Len()),
		zap.Int("best_knn_k", provider.Registry().Metadata().BestKNNK))

	service, err := ml.NewPredictionService(provider, config.Models.CacheSize)
	if err != nil {
		logger.Fatal("failed to create prediction service", zap.Error(err))
	}

	hub := qhttp.NewHub(logger)
	go hub.Run(ctx)

	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds > 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	api := qhttp.NewAPI(service, provider, hub, logger)
	server := qhttp.NewServer(serverConfig, api, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()
	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
