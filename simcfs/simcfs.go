// Package simcfs replays a synthetic workload against the scheduling
// policies without running any user code. Each dispatch is one
// timeslice of service; jobs arrive as a Poisson process and leave when
// they have received their service.
package simcfs

import (
	"fmt"
	"sort"

	"github.com/thanhpk/randstr"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/fs"
	"cfsos/proc"
	"cfsos/sched"
	"cfsos/stats"
	"cfsos/vm"
)

type Tslice int64

type Params struct {
	Policy     string
	Nproc      int
	Lambda     float64 // arrivals per timeslice
	MaxService int     // in timeslices
	Nices      []int
	Nslice     Tslice
	Seed       uint64
}

func DefaultParams(policy string) *Params {
	return &Params{
		Policy:     policy,
		Nproc:      64,
		Lambda:     0.08,
		MaxService: 20,
		Nices:      []int{0, 5},
		Nslice:     100000,
		Seed:       1,
	}
}

type Job struct {
	p       *proc.Proc
	pid     int
	nice    int
	service Tslice
	ran     Tslice
	arrival Tslice
	done    Tslice
}

func (j *Job) String() string {
	return fmt.Sprintf("{pid %d nice %d svc %d ran %d arr %d done %d}", j.pid, j.nice, j.service, j.ran, j.arrival, j.done)
}

func (j *Job) Done() Tslice {
	return j.done
}

func (j *Job) Turnaround() Tslice {
	return j.done - j.arrival
}

// Slowdown is turnaround relative to the job's service time.
func (j *Job) Slowdown() float64 {
	return float64(j.Turnaround()) / float64(j.service)
}

type World struct {
	prm      *Params
	mem      *vm.Mem
	tbl      *proc.Table
	policy   sched.Policy
	src      rand.Source
	rand     *rand.Rand
	now      Tslice
	last     Tslice // time of the last arrivals
	live     map[int]*Job
	exited   []*Job
	finished []*Job
	nreject  int
	nidle    int
}

func NewWorld(prm *Params) (*World, error) {
	w := &World{
		prm:  prm,
		mem:  vm.NewMem(2*prm.Nproc + 1),
		live: make(map[int]*Job),
		src:  rand.NewSource(prm.Seed),
	}
	w.rand = rand.New(w.src)
	w.tbl = proc.NewTable(prm.Nproc, 1, w.mem, fs.NewFs(), stats.NewStatInfo())
	cfg := config.NewConfig()
	switch prm.Policy {
	case config.POLICY_RR:
		w.policy = sched.NewRoundRobin(w.tbl)
	case config.POLICY_CFS:
		w.policy = sched.NewFair(w.tbl, int(cfg.SchedLatency), int(cfg.MinTimeslice), int(cfg.MaxTimeslice))
	default:
		return nil, fmt.Errorf("unknown policy %q", prm.Policy)
	}
	return w, nil
}

func (w *World) String() string {
	return fmt.Sprintf("{%v now %d live %d finished %d reject %d idle %d}", w.policy.Name(), w.now, len(w.live), len(w.finished), w.nreject, w.nidle)
}

func (w *World) Now() Tslice {
	return w.now
}

func (w *World) Finished() []*Job {
	return w.finished
}

func (w *World) Nreject() int {
	return w.nreject
}

func (w *World) Mem() *vm.Mem {
	return w.mem
}

// Spawn makes a RUNNABLE process that needs service timeslices.
func (w *World) Spawn(nice int, service Tslice) (*Job, error) {
	p, err := w.tbl.Allocproc()
	if err != nil {
		w.nreject++
		return nil, err
	}
	p.SetNameL(randstr.Hex(4))
	p.Unlock()
	p.SetNice(nice)
	j := &Job{p: p, pid: p.Pid(), nice: nice, service: service, arrival: w.now}
	w.live[j.pid] = j
	p.Lock()
	p.SetStateL(proc.RUNNABLE)
	p.Unlock()
	db.DPrintf(db.SIM, "%d: spawn %v %v", w.now, p.Name(), j)
	return j, nil
}

// Dispatch gives p one timeslice. The policy holds p's lock.
func (w *World) Dispatch(p *proc.Proc) {
	j, ok := w.live[p.Pid()]
	if !ok {
		db.DFatalf("dispatch unknown %v", p)
	}
	w.now++
	j.ran++
	if j.ran >= j.service {
		j.done = w.now
		p.SetStateL(proc.ZOMBIE)
		w.exited = append(w.exited, j)
	}
}

func (w *World) arrivals() {
	elapsed := w.now - w.last
	if elapsed <= 0 {
		return
	}
	w.last = w.now
	ps := &distuv.Poisson{Lambda: w.prm.Lambda * float64(elapsed), Src: w.src}
	n := int(ps.Rand())
	for i := 0; i < n; i++ {
		nice := w.prm.Nices[w.rand.Intn(len(w.prm.Nices))]
		svc := Tslice(1 + w.rand.Intn(w.prm.MaxService))
		w.Spawn(nice, svc)
	}
}

// Step runs the policy once and retires the jobs that completed.
func (w *World) Step() bool {
	ran := w.policy.Schedule(w)
	if !ran {
		w.now++
		w.nidle++
	}
	for _, j := range w.exited {
		j.p.Lock()
		w.tbl.Freeproc(j.p)
		j.p.Unlock()
		delete(w.live, j.pid)
		w.finished = append(w.finished, j)
	}
	w.exited = w.exited[:0]
	return ran
}

// Run steps through Nslice timeslices with arrivals.
func (w *World) Run() {
	for w.now < w.prm.Nslice {
		w.arrivals()
		w.Step()
	}
}

// Drain steps without arrivals until every job has finished.
func (w *World) Drain() {
	for len(w.live) > 0 {
		w.Step()
	}
}

// Report summarizes the slowdown of finished jobs per niceness.
func (w *World) Report() (map[int]*stats.Summary, error) {
	byNice := make(map[int][]float64)
	for _, j := range w.finished {
		byNice[j.nice] = append(byNice[j.nice], j.Slowdown())
	}
	rep := make(map[int]*stats.Summary)
	for n, sds := range byNice {
		s, err := stats.Summarize(sds)
		if err != nil {
			return nil, err
		}
		rep[n] = s
	}
	return rep, nil
}

func Nices(rep map[int]*stats.Summary) []int {
	ns := make([]int, 0, len(rep))
	for n := range rep {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	return ns
}
