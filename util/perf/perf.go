package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	db "cfsos/debug"
)

//
// Perf output is controlled by the CFSPERF environment variable, which
// can be a list of labels (e.g., "KERNEL_PPROF;SIM_TPT;").
//

const (
	CFSPERF                = "CFSPERF"
	MUTEX_PROFILE_FRACTION = 1
	BLOCK_PROFILE_RATE     = 5
	TPT_SAMPLE_HZ          = 10
)

var OUTPUT_PATH = filepath.Join(os.TempDir(), "cfsos-perf")

type Tselector string

const (
	KERNEL Tselector = "KERNEL"
	SIM    Tselector = "SIM"
)

// Suffixes
const (
	PPROF       Tselector = "_PPROF"
	PPROF_MEM   Tselector = "_PPROF_MEM"
	PPROF_MUTEX Tselector = "_PPROF_MUTEX"
	PPROF_BLOCK Tselector = "_PPROF_BLOCK"
	TPT         Tselector = "_TPT"
)

var mu sync.Mutex
var labels map[Tselector]bool

func parseLabels(s string) map[Tselector]bool {
	m := make(map[Tselector]bool)
	for _, l := range strings.Split(s, ";") {
		if l != "" {
			m[Tselector(l)] = true
		}
	}
	return m
}

func init() {
	labels = parseLabels(os.Getenv(CFSPERF))
}

// SetLabels replaces the labels read from the environment.
func SetLabels(s string) {
	mu.Lock()
	defer mu.Unlock()
	labels = parseLabels(s)
}

func enabled(l Tselector) bool {
	mu.Lock()
	defer mu.Unlock()
	return labels[l]
}

type prof struct {
	active bool
	file   *os.File
}

type Perf struct {
	mu         sync.Mutex
	selector   Tselector
	done       bool
	pprof      prof
	pprofMem   prof
	pprofMutex prof
	pprofBlock prof
	tpt        bool
	tpts       []float64
	times      []time.Time
	tptFile    *os.File
}

func NewPerf(s Tselector) (*Perf, error) {
	p := &Perf{selector: s}
	db.DPrintf(db.PERF, "Perf tracking selector %v", s)
	if err := os.MkdirAll(OUTPUT_PATH, 0777); err != nil {
		db.DPrintf(db.ALWAYS, "NewPerf: MkdirAll %s err %v", OUTPUT_PATH, err)
		return nil, err
	}
	base := filepath.Join(OUTPUT_PATH, fmt.Sprintf("%v-%d", strings.ToLower(string(s)), os.Getpid()))
	if enabled(s + PPROF) {
		if err := p.setupPprof(base + "-pprof.out"); err != nil {
			return nil, err
		}
	}
	if enabled(s + PPROF_MEM) {
		if err := p.setupFile(&p.pprofMem, base+"-pprof-mem.out"); err != nil {
			return nil, err
		}
	}
	if enabled(s + PPROF_MUTEX) {
		runtime.SetMutexProfileFraction(MUTEX_PROFILE_FRACTION)
		if err := p.setupFile(&p.pprofMutex, base+"-pprof-mutex.out"); err != nil {
			return nil, err
		}
	}
	if enabled(s + PPROF_BLOCK) {
		runtime.SetBlockProfileRate(BLOCK_PROFILE_RATE)
		if err := p.setupFile(&p.pprofBlock, base+"-pprof-block.out"); err != nil {
			return nil, err
		}
	}
	if enabled(s + TPT) {
		if err := p.setupTpt(base + "-tpt.out"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Perf) setupFile(pr *prof, fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	pr.active = true
	pr.file = f
	return nil
}

func (p *Perf) setupPprof(fpath string) error {
	if err := p.setupFile(&p.pprof, fpath); err != nil {
		return err
	}
	return pprof.StartCPUProfile(p.pprof.file)
}

func (p *Perf) setupTpt(fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	p.tpt = true
	p.tptFile = f
	p.tpts = append(p.tpts, 0.0)
	p.times = append(p.times, time.Now())
	return nil
}

// TptTick registers that an event has happened with a given
// instantaneous throughput.
func (p *Perf) TptTick(tpt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tpt {
		return
	}
	// Seal the current slot once it is old enough, so that
	// len(p.times) == len(p.tpts) always.
	if time.Since(p.times[len(p.times)-1]) > time.Second/TPT_SAMPLE_HZ {
		p.tpts = append(p.tpts, 0.0)
		p.times = append(p.times, time.Now())
	}
	p.tpts[len(p.tpts)-1] += tpt
}

func (p *Perf) SumTicks() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := float64(0)
	for _, tpt := range p.tpts {
		sum += tpt
	}
	return sum
}

func (p *Perf) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	if p.pprof.active {
		p.pprof.active = false
		pprof.StopCPUProfile()
		p.pprof.file.Close()
	}
	p.writeProfile(&p.pprofMem, "heap")
	p.writeProfile(&p.pprofMutex, "mutex")
	p.writeProfile(&p.pprofBlock, "block")
	if p.tpt {
		p.tpt = false
		for i := range p.times {
			if _, err := fmt.Fprintf(p.tptFile, "%vus,%f\n", p.times[i].UnixMicro(), p.tpts[i]); err != nil {
				db.DPrintf(db.ALWAYS, "Error writing to tpt file: %v", err)
				break
			}
		}
		p.tptFile.Close()
	}
	db.DPrintf(db.PERF, "Perf done %v", p.selector)
}

// Caller holds lock.
func (p *Perf) writeProfile(pr *prof, name string) {
	if !pr.active {
		return
	}
	pr.active = false
	if err := pprof.Lookup(name).WriteTo(pr.file, 0); err != nil {
		db.DPrintf(db.ALWAYS, "could not write %v profile: %v", name, err)
	}
	pr.file.Close()
}

// CPUTime returns the user and system time this process has used on
// the host.
func CPUTime() (time.Duration, time.Duration, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0, err
	}
	return time.Duration(ru.Utime.Nano()), time.Duration(ru.Stime.Nano()), nil
}
