package simcfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/simcfs"
)

func newWorld(t *testing.T, prm *simcfs.Params) *simcfs.World {
	w, err := simcfs.NewWorld(prm)
	assert.Nil(t, err)
	return w
}

func TestBadPolicy(t *testing.T) {
	_, err := simcfs.NewWorld(simcfs.DefaultParams("lottery"))
	assert.NotNil(t, err)
}

func TestTwoJobsFair(t *testing.T) {
	w := newWorld(t, simcfs.DefaultParams(config.POLICY_CFS))
	j0, err := w.Spawn(0, 100)
	assert.Nil(t, err)
	j1, err := w.Spawn(5, 100)
	assert.Nil(t, err)
	w.Drain()
	// three timeslices for nice 0 for every one of nice 5
	assert.Equal(t, simcfs.Tslice(130), j0.Done())
	assert.Equal(t, simcfs.Tslice(200), j1.Done())
}

func TestTwoJobsRoundRobin(t *testing.T) {
	w := newWorld(t, simcfs.DefaultParams(config.POLICY_RR))
	j0, err := w.Spawn(0, 100)
	assert.Nil(t, err)
	j1, err := w.Spawn(5, 100)
	assert.Nil(t, err)
	w.Drain()
	assert.Equal(t, simcfs.Tslice(199), j0.Done())
	assert.Equal(t, simcfs.Tslice(200), j1.Done())
}

func TestTableFull(t *testing.T) {
	prm := simcfs.DefaultParams(config.POLICY_CFS)
	prm.Nproc = 2
	w := newWorld(t, prm)
	for i := 0; i < 2; i++ {
		_, err := w.Spawn(0, 1)
		assert.Nil(t, err)
	}
	_, err := w.Spawn(0, 1)
	assert.NotNil(t, err)
	assert.Equal(t, 1, w.Nreject())
	w.Drain()
	assert.Equal(t, 2, len(w.Finished()))
	_, err = w.Spawn(0, 1)
	assert.Nil(t, err)
}

func TestRun(t *testing.T) {
	for _, pol := range []string{config.POLICY_RR, config.POLICY_CFS} {
		prm := simcfs.DefaultParams(pol)
		prm.Nslice = 20000
		w := newWorld(t, prm)
		n := w.Mem().Nfree()
		w.Run()
		w.Drain()
		assert.True(t, len(w.Finished()) > 0)
		for _, j := range w.Finished() {
			assert.True(t, j.Slowdown() >= 1.0, "%v", j)
		}
		assert.Equal(t, n, w.Mem().Nfree())
		rep, err := w.Report()
		assert.Nil(t, err)
		for _, nice := range simcfs.Nices(rep) {
			db.DPrintf(db.TEST, "%v nice %d slowdown %v", w, nice, rep[nice])
		}
	}
}
