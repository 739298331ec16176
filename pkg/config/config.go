package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runningwild/iobench/pkg/engine"
)

const (
	DefaultBlockSize   = 4096
	DefaultCount       = 100000
	DefaultFileSizeGiB = 1
	DefaultEngineType  = "sync"
)

// Config is the on-disk and flag-derived description of a benchmark run.
type Config struct {
	Workdir     string `yaml:"workdir"`
	Mode        string `yaml:"mode"` // rread, rwrite, sread, swrite (or RR, RW, SR, SW)
	BlockSize   int    `yaml:"block_size"`
	Count       int64  `yaml:"count"`
	FileSizeGiB int64  `yaml:"filesize_gib"`
	ClearCache  *bool  `yaml:"clear_cache,omitempty"` // Default true
	WriteLog    *bool  `yaml:"write_log,omitempty"`   // Default true

	EngineType        string        `yaml:"engine_type"`                   // "sync" or "uring"
	Settle            time.Duration `yaml:"settle,omitempty"`              // Delay before the loop may start
	CacheClearCommand []string      `yaml:"cache_clear_command,omitempty"` // Overrides the sysctl command
}

// Load reads a YAML config file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Count == 0 {
		c.Count = DefaultCount
	}
	if c.FileSizeGiB == 0 {
		c.FileSizeGiB = DefaultFileSizeGiB
	}
	if c.ClearCache == nil {
		c.ClearCache = boolPtr(true)
	}
	if c.WriteLog == nil {
		c.WriteLog = boolPtr(true)
	}
	if c.EngineType == "" {
		c.EngineType = DefaultEngineType
	}
}

// Workload validates the config and converts it into an engine workload.
func (c *Config) Workload() (engine.Workload, error) {
	var w engine.Workload
	if c.Mode == "" {
		return w, fmt.Errorf("I/O type must be specified out of --rread, --rwrite, --sread, --swrite")
	}
	mode, err := engine.ParseMode(c.Mode)
	if err != nil {
		return w, err
	}
	if c.Workdir == "" {
		return w, fmt.Errorf("argument WORKDIR must be specified")
	}
	st, err := os.Stat(c.Workdir)
	if err != nil {
		return w, fmt.Errorf("workdir: %w", err)
	}
	if !st.IsDir() {
		return w, fmt.Errorf("workdir %s is not a directory", c.Workdir)
	}
	if c.BlockSize <= 0 {
		return w, fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.Count <= 0 {
		return w, fmt.Errorf("count must be positive, got %d", c.Count)
	}
	if c.FileSizeGiB <= 0 || c.FileSizeGiB >= 1<<33 {
		return w, fmt.Errorf("file size must be between 1 and %d GiB, got %d", int64(1<<33)-1, c.FileSizeGiB)
	}
	switch c.EngineType {
	case "", "sync", "uring":
	default:
		return w, fmt.Errorf("unknown engine type %q (want sync or uring)", c.EngineType)
	}

	return engine.Workload{
		Dir:        c.Workdir,
		Mode:       mode,
		BlockSize:  c.BlockSize,
		Count:      c.Count,
		FileSize:   c.FileSizeGiB << 30,
		ClearCache: c.ClearCache == nil || *c.ClearCache,
		WriteLog:   c.WriteLog == nil || *c.WriteLog,
	}, nil
}

func boolPtr(b bool) *bool { return &b }
