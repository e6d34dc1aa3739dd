package litepool

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/jirevwe/litepool/journal"
)

type Config struct {
	// Workers is the number of workers each Start call spawns. Zero or less
	// means the number of logical CPUs.
	Workers int

	Logger *slog.Logger

	// Journal, when set, receives a record every time a task changes status.
	Journal journal.Journal
}

// DefaultConfig sizes the pool to the number of logical CPUs.
func DefaultConfig() *Config {
	return &Config{Workers: runtime.NumCPU()}
}

func (c *Config) withDefaults() *Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	return &cfg
}
