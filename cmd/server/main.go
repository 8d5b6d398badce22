package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/api"
	"moderation/pkg/censor"
	"moderation/pkg/lexicon"
	"moderation/pkg/loader"
)

type Config struct {
	ServiceName string `toml:"serviceName" env:"MODERATION_SERVICE_NAME"`

	// LexiconPath is a file path or an http(s) URL of the banned-word list.
	LexiconPath    string        `toml:"lexiconPath" env:"MODERATION_LEXICON_PATH"`
	LexiconTimeout time.Duration `toml:"lexiconTimeout" env:"MODERATION_LEXICON_TIMEOUT"`

	HTTPAddr   string `toml:"httpAddr" env:"MODERATION_HTTP_ADDR"`
	LogLevel   string `toml:"logLevel" env:"MODERATION_LOG_LEVEL"`
	KafkaAddr  string `toml:"kafkaAddr" env:"MODERATION_KAFKA_ADDR"`
	KafkaTopic string `toml:"kafkaTopic" env:"MODERATION_KAFKA_TOPIC"`
	KafkaBatch int    `toml:"kafkaBatch" env:"MODERATION_KAFKA_BATCH"`
}

// loadConfig reads the TOML file at path and applies MODERATION_* environment overrides.
func loadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceName: "moderation",
		HTTPAddr:    ":8055",
		LogLevel:    "info",
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func main() {
	var (
		configPath  string
		lexiconPath string
		httpAddr    string
		logLevel    string
		kafkaAddr   string
		kafkaTopic  string
		kafkaBatch  int
	)

	flag.StringVar(&configPath, "servconf", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&lexiconPath, "lexicon", "", "Path or URL of the banned words list")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if lexiconPath != "" {
		cfg.LexiconPath = lexiconPath
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	if cfg.LexiconPath == "" {
		log.Fatal("[server] lexicon path is not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The server accepts requests right away; moderation answers 503 until the lexicon is in.
	store := lexicon.NewStore()
	lexLoader := loader.New(loader.NewSource(cfg.LexiconPath, cfg.LexiconTimeout), store)
	lexLoader.Start(ctx)

	var kafkaWriter *kafka.Writer
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		kafkaWriter = &kafka.Writer{
			Addr:      kafka.TCP(cfg.KafkaAddr),
			Topic:     cfg.KafkaTopic,
			BatchSize: cfg.KafkaBatch,
		}
		defer kafkaWriter.Close()

		err := createTopic(kafkaWriter.Addr.String(), kafkaWriter.Topic)
		if err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	api, err := api.New(cfg.ServiceName, censor.New(store), kafkaWriter)
	if err != nil {
		log.Fatalf("[server] failed to create API: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("[server] starting on port %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
			return
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			break
		}
		log.Infof("[server] SIGHUP received, reloading lexicon from %s", cfg.LexiconPath)
		if err := lexLoader.Reload(ctx); err != nil {
			log.Warnf("[server] keeping previous lexicon: %v", err)
		}
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
