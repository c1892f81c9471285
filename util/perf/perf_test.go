package perf_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cfsos/util/perf"
)

func TestNoLabels(t *testing.T) {
	perf.SetLabels("")
	p, err := perf.NewPerf(perf.SIM)
	assert.Nil(t, err)
	p.TptTick(1.0)
	assert.Equal(t, 0.0, p.SumTicks())
	p.Done()
	p.Done()
}

func TestTpt(t *testing.T) {
	perf.OUTPUT_PATH = t.TempDir()
	perf.SetLabels("SIM_TPT;SIM_PPROF_MUTEX")
	defer perf.SetLabels("")

	p, err := perf.NewPerf(perf.SIM)
	assert.Nil(t, err)
	for i := 0; i < 3; i++ {
		p.TptTick(2.0)
		time.Sleep(time.Second / perf.TPT_SAMPLE_HZ)
	}
	assert.Equal(t, 6.0, p.SumTicks())
	p.Done()

	fs, err := filepath.Glob(filepath.Join(perf.OUTPUT_PATH, "sim-*-tpt.out"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(fs))
	b, err := os.ReadFile(fs[0])
	assert.Nil(t, err)
	assert.True(t, len(b) > 0)
	fs, err = filepath.Glob(filepath.Join(perf.OUTPUT_PATH, "sim-*-pprof-mutex.out"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(fs))
}

func TestCPUTime(t *testing.T) {
	u, _, err := perf.CPUTime()
	assert.Nil(t, err)
	assert.True(t, u >= 0)
}
