package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/simcfs"
	"cfsos/util/perf"
)

var nslice = flag.Int64("nslice", 100000, "timeslices to simulate")
var lambda = flag.Float64("lambda", 0.08, "arrivals per timeslice")
var maxsvc = flag.Int("maxservice", 20, "max service time in timeslices")
var nproc = flag.Int("nproc", 64, "process table size")
var nices = flag.String("nices", "0,5", "comma-separated niceness levels")
var seed = flag.Uint64("seed", 1, "random seed")

func parseNices(s string) ([]int, error) {
	ns := make([]int, 0)
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func main() {
	flag.Parse()
	ns, err := parseNices(*nices)
	if err != nil {
		db.DFatalf("nices %v err %v", *nices, err)
	}
	pf, err := perf.NewPerf(perf.SIM)
	if err != nil {
		db.DFatalf("NewPerf err %v", err)
	}
	defer pf.Done()
	for _, pol := range []string{config.POLICY_RR, config.POLICY_CFS} {
		prm := simcfs.DefaultParams(pol)
		prm.Nslice = simcfs.Tslice(*nslice)
		prm.Lambda = *lambda
		prm.MaxService = *maxsvc
		prm.Nproc = *nproc
		prm.Nices = ns
		prm.Seed = *seed
		w, err := simcfs.NewWorld(prm)
		if err != nil {
			db.DFatalf("NewWorld err %v", err)
		}
		w.Run()
		w.Drain()
		pf.TptTick(float64(len(w.Finished())))
		rep, err := w.Report()
		if err != nil {
			db.DFatalf("Report err %v", err)
		}
		fmt.Printf("%v: %s jobs in %s timeslices, %s rejected\n", pol,
			humanize.Comma(int64(len(w.Finished()))), humanize.Comma(int64(w.Now())),
			humanize.Comma(int64(w.Nreject())))
		for _, n := range simcfs.Nices(rep) {
			fmt.Printf("  nice %3d slowdown %v\n", n, rep[n])
		}
	}
}
