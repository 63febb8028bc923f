package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	cb "github.com/Astemirdum/book-service/pkg/circuit_breaker"
	"github.com/Astemirdum/book-service/pkg/kafka"
	"github.com/Astemirdum/book-service/pkg/logger"
	"github.com/Astemirdum/book-service/pkg/postgres"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOK_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"BOOK_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type CategoryHTTPServer struct {
	Host    string        `envconfig:"CATEGORY_HTTP_HOST" default:"localhost"`
	Port    string        `envconfig:"CATEGORY_HTTP_PORT" default:"8081"`
	Timeout time.Duration `envconfig:"CATEGORY_TIMEOUT" default:"3s"`
}

type Config struct {
	Server         HTTPServer  `yaml:"server"`
	Database       postgres.DB `yaml:"db"`
	Storage        string      `envconfig:"BOOK_STORAGE"`
	Category       CategoryHTTPServer
	CircuitBreaker cb.Config
	Kafka          kafka.Config
	Log            logger.Log `yaml:"log"`
}

type Option func(cfg *Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(cfg *Config) {
		cfg.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.Server.WriteTimeout = timeout
	}
}

func WithStorage(storage string) Option {
	return func(cfg *Config) {
		cfg.Storage = storage
	}
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options set values the environment may override.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	masked := *cfg
	masked.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(masked, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
