package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	db "cfsos/debug"
)

const (
	CFSCONFIG = "CFSCONFIG"
	CFSDEBUG  = "CFSDEBUG"
	CFSFAIL   = "CFSFAIL"
)

const (
	POLICY_RR  = "rr"
	POLICY_CFS = "cfs"
)

type Config struct {
	Ncpu            int           `yaml:"ncpu"`
	Nproc           int           `yaml:"nproc"`
	Npages          int           `yaml:"npages"`
	Nofile          int           `yaml:"nofile"`
	Policy          string        `yaml:"policy"`
	SchedLatency    int64         `yaml:"sched_latency"`
	MinTimeslice    int64         `yaml:"min_timeslice"`
	MaxTimeslice    int64         `yaml:"max_timeslice"`
	Quantum         int           `yaml:"quantum"` // user instructions per timer interrupt
	Tick            time.Duration `yaml:"tick"`
	Idle            time.Duration `yaml:"idle"`
	Deadlock        bool          `yaml:"deadlock"`
	DeadlockTimeout time.Duration `yaml:"deadlock_timeout"`
	Debug           string        `yaml:"debug"`
	Fail            string        `yaml:"fail"`
}

func NewConfig() *Config {
	// Load Debug & Fail from the environment for convenience.
	return &Config{
		Ncpu:            1,
		Nproc:           64,
		Npages:          4096,
		Nofile:          16,
		Policy:          POLICY_RR,
		SchedLatency:    100,
		MinTimeslice:    1,
		MaxTimeslice:    10,
		Quantum:         64,
		Tick:            time.Millisecond,
		Idle:            50 * time.Microsecond,
		DeadlockTimeout: 30 * time.Second,
		Debug:           os.Getenv(CFSDEBUG),
		Fail:            os.Getenv(CFSFAIL),
	}
}

// Small machine for tests: few slots, fast clock.
func NewTestConfig(ncpu int) *Config {
	cfg := NewConfig()
	cfg.Ncpu = ncpu
	cfg.Nproc = 16
	cfg.Npages = 512
	cfg.Quantum = 32
	cfg.Tick = 200 * time.Microsecond
	cfg.Idle = 20 * time.Microsecond
	return cfg
}

// Load reads a yaml file; fields missing from the file keep their
// defaults.
func Load(pn string) (*Config, error) {
	b, err := os.ReadFile(pn)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by CFSCONFIG, or returns the defaults.
func FromEnv() (*Config, error) {
	pn := os.Getenv(CFSCONFIG)
	if pn == "" {
		return NewConfig(), nil
	}
	db.DPrintf(db.KERNEL, "Load config %v", pn)
	return Load(pn)
}

// Override applies key=value settings, keyed by yaml name, on top of
// cfg. Values are converted to the field's type.
func (cfg *Config) Override(kvs []string) error {
	m := make(map[string]interface{}, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("override %q: want key=value", kv)
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "yaml",
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return err
	}
	return cfg.Validate()
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.Ncpu <= 0:
		return fmt.Errorf("ncpu %d", cfg.Ncpu)
	case cfg.Nproc <= 0:
		return fmt.Errorf("nproc %d", cfg.Nproc)
	case cfg.Npages <= 0:
		return fmt.Errorf("npages %d", cfg.Npages)
	case cfg.Nofile <= 0:
		return fmt.Errorf("nofile %d", cfg.Nofile)
	case cfg.Quantum <= 0:
		return fmt.Errorf("quantum %d", cfg.Quantum)
	case cfg.Tick <= 0:
		return fmt.Errorf("tick %v", cfg.Tick)
	case cfg.SchedLatency <= 0:
		return fmt.Errorf("sched_latency %d", cfg.SchedLatency)
	case cfg.MinTimeslice <= 0 || cfg.MinTimeslice > cfg.MaxTimeslice:
		return fmt.Errorf("timeslice range [%d, %d]", cfg.MinTimeslice, cfg.MaxTimeslice)
	}
	if cfg.Policy != POLICY_RR && cfg.Policy != POLICY_CFS {
		return fmt.Errorf("unknown policy %q", cfg.Policy)
	}
	return nil
}

func (cfg *Config) String() string {
	return fmt.Sprintf("{ncpu %d nproc %d npages %d policy %v latency %d ts [%d,%d] quantum %d tick %v}",
		cfg.Ncpu, cfg.Nproc, cfg.Npages, cfg.Policy, cfg.SchedLatency, cfg.MinTimeslice,
		cfg.MaxTimeslice, cfg.Quantum, cfg.Tick)
}
