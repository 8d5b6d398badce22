package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/logkeeper"
)

type Config struct {
	LogLevel     string   `toml:"logLevel" env:"LOGKEEPER_LOG_LEVEL"`
	KafkaBrokers []string `toml:"kafkaBrokers" env:"LOGKEEPER_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `toml:"kafkaTopic" env:"LOGKEEPER_KAFKA_TOPIC"`
	KafkaGroupID string   `toml:"kafkaGroupID" env:"LOGKEEPER_KAFKA_GROUP_ID"`

	ElasticSearchIndex string   `toml:"elasticSearchIndex" env:"LOGKEEPER_ES_INDEX"`
	ElasticSearchNodes []string `toml:"elasticSearchNodes" env:"LOGKEEPER_ES_NODES" envSeparator:","`

	NumWorkers int `toml:"numWorkers" env:"LOGKEEPER_WORKERS"`
}

func main() {
	var (
		configPath string
		logLevel   string
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("[logkeeper] shutting down gracefully...")
		cancel()
	}()

	flag.StringVar(&configPath, "config", "cmd/logkeeper/config.toml", "Path to TOML config file")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[logkeeper] failed to load config file %s: %v", configPath, err)
	}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("[logkeeper] failed to parse environment: %v", err)
	}

	// Override config with flags if set
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.ElasticSearchNodes})
	if err != nil {
		log.Fatalf("[logkeeper] error creating the client: %s", err)
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	defer r.Close()

	logkeeper.New(es, cfg.ElasticSearchIndex, cfg.NumWorkers).Run(ctx, r)
	log.Info("[logkeeper] stopped")
}
