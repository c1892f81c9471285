package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, POLICY_RR, cfg.Policy)
	assert.Equal(t, int64(100), cfg.SchedLatency)
	assert.Equal(t, int64(1), cfg.MinTimeslice)
	assert.Equal(t, int64(10), cfg.MaxTimeslice)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("ncpu: 4\npolicy: cfs\ntick: 2ms\nmax_timeslice: 20\n"))
	assert.Nil(t, err)
	assert.Equal(t, 4, cfg.Ncpu)
	assert.Equal(t, POLICY_CFS, cfg.Policy)
	assert.Equal(t, 2*time.Millisecond, cfg.Tick)
	assert.Equal(t, int64(20), cfg.MaxTimeslice)
	// untouched fields keep their defaults
	assert.Equal(t, 64, cfg.Nproc)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("policy: lottery\n"))
	assert.NotNil(t, err)
	_, err = Parse([]byte("min_timeslice: 5\nmax_timeslice: 2\n"))
	assert.NotNil(t, err)
	_, err = Parse([]byte("ncpu: 0\n"))
	assert.NotNil(t, err)
}

func TestFromEnv(t *testing.T) {
	pn := filepath.Join(t.TempDir(), "kernel.yaml")
	err := os.WriteFile(pn, []byte("nproc: 8\n"), 0644)
	assert.Nil(t, err)
	t.Setenv(CFSCONFIG, pn)
	cfg, err := FromEnv()
	assert.Nil(t, err)
	assert.Equal(t, 8, cfg.Nproc)
}

func TestOverride(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Override([]string{"ncpu=3", "policy=cfs", "idle=1ms", "deadlock=true"})
	assert.Nil(t, err)
	assert.Equal(t, 3, cfg.Ncpu)
	assert.Equal(t, POLICY_CFS, cfg.Policy)
	assert.Equal(t, time.Millisecond, cfg.Idle)
	assert.True(t, cfg.Deadlock)
	assert.Equal(t, 64, cfg.Nproc)

	assert.NotNil(t, NewConfig().Override([]string{"ncpu"}))
	assert.NotNil(t, NewConfig().Override([]string{"nosuch=1"}))
	assert.NotNil(t, NewConfig().Override([]string{"ncpu=-1"}))
}
