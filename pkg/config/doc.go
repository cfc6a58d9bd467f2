// Package config loads typed configuration structs from environment
// variables using caarlos0/env struct tags, with a best-effort .env file
// load for local development.
//
//	type QueueConfig struct {
//	    BatchSize int           `env:"QUEUE_BATCH_SIZE" envDefault:"50"`
//	    Sweep     time.Duration `env:"QUEUE_SWEEP_INTERVAL" envDefault:"30s"`
//	}
//
//	var cfg QueueConfig
//	config.MustLoad(&cfg)
package config
