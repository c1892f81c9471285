package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/kernel"
	"cfsos/proc"
	"cfsos/stats"
	"cfsos/user"
	"cfsos/util/perf"
)

var pn = flag.String("config", "", "yaml config file (default $"+config.CFSCONFIG+")")
var prog = flag.String("prog", "cfs", "program to boot as init")
var dur = flag.Duration("duration", 2*time.Second, "how long to run")
var policy = flag.String("policy", "", "override the scheduling policy (rr or cfs)")
var ncpu = flag.Int("ncpu", 0, "override the number of cpus")
var set = flag.String("set", "", "comma-separated key=value config overrides")

func programs() string {
	ns := make([]string, 0, len(user.Programs))
	for n := range user.Programs {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return fmt.Sprintf("%v", ns)
}

// sample records dispatch throughput until d has passed.
func sample(k *kernel.Kernel, pf *perf.Perf, d time.Duration) {
	tick := time.NewTicker(time.Second / perf.TPT_SAMPLE_HZ)
	defer tick.Stop()
	end := time.After(d)
	last := int64(0)
	for {
		select {
		case <-end:
			return
		case <-tick.C:
			n := stats.Read(&k.Stats().Ndispatch)
			pf.TptTick(float64(n - last))
			last = n
		}
	}
}

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error
	if *pn != "" {
		cfg, err = config.Load(*pn)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		db.DFatalf("config %v err %v", *pn, err)
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if *ncpu > 0 {
		cfg.Ncpu = *ncpu
	}
	if *set != "" {
		if err := cfg.Override(strings.Split(*set, ",")); err != nil {
			db.DFatalf("set %v err %v", *set, err)
		}
	}
	mk, ok := user.Programs[*prog]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown program %q; choose one of %v\n", *prog, programs())
		os.Exit(1)
	}
	code, err := mk()
	if err != nil {
		db.DFatalf("assemble %v err %v", *prog, err)
	}

	pf, err := perf.NewPerf(perf.KERNEL)
	if err != nil {
		db.DFatalf("NewPerf err %v", err)
	}
	defer pf.Done()

	k, err := kernel.NewKernel(cfg)
	if err != nil {
		db.DFatalf("NewKernel err %v", err)
	}
	if err := k.Boot(code); err != nil {
		db.DFatalf("Boot err %v", err)
	}
	sample(k, pf, *dur)

	pis := k.Table().Procdump()
	fmt.Printf("procs after %v:\n%v", *dur, proc.ProcdumpString(pis))
	ys := make([]uint64, 0, len(pis))
	for _, pi := range pis {
		ys = append(ys, pi.Yields)
	}
	if err := k.Shutdown(); err != nil {
		db.DFatalf("Shutdown err %v", err)
	}

	for _, r := range k.Console().Records() {
		fmt.Printf("console pid %d: %q\n", r.Pid, r.Data)
	}
	if s, err := stats.Summarize(ys); err == nil {
		fmt.Printf("yields %v\n", s)
	}
	st := k.Stats()
	fmt.Printf("%s instructions, %s syscalls, %s dispatches, %s idle loops, %s ticks\n",
		humanize.Comma(stats.Read(&st.Ninstr)),
		humanize.Comma(stats.Read(&st.Nsyscall)),
		humanize.Comma(stats.Read(&st.Ndispatch)),
		humanize.Comma(stats.Read(&st.Nidle)),
		humanize.Comma(stats.Read(&st.Nticks)),
	)
	if u, sy, err := perf.CPUTime(); err == nil {
		fmt.Printf("host cpu %v user %v sys\n", u, sy)
	}
	fmt.Printf("memory %s free of %s\n",
		humanize.IBytes(uint64(k.Mem().Nfree()*defs.PGSIZE)),
		humanize.IBytes(uint64(k.Mem().Npages()*defs.PGSIZE)))
}
