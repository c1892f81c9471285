package sched

import (
	db "cfsos/debug"
	"cfsos/defs"
)

const NICE_0_LOAD = 1024

// Weight of each niceness, from -20 to 19. Each step is roughly a 1.25
// multiplier.
var weights = [40]int64{
	/* -20 */ 88761, 71755, 56483, 46273, 36291,
	/* -15 */ 29154, 23254, 18705, 14949, 11916,
	/* -10 */ 9548, 7620, 6100, 4904, 3906,
	/*  -5 */ 3121, 2501, 1991, 1586, 1277,
	/*   0 */ 1024, 820, 655, 526, 423,
	/*   5 */ 335, 272, 215, 172, 137,
	/*  10 */ 110, 87, 70, 56, 45,
	/*  15 */ 36, 29, 23, 18, 15,
}

func Weight(nice int) int64 {
	if nice < defs.NICE_MIN || nice > defs.NICE_MAX {
		db.DFatalf("weight: nice %d out of range", nice)
	}
	return weights[nice-defs.NICE_MIN]
}

func ceildiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// VruntimeInc is the virtual runtime charged for running n timeslices at
// weight w: ceil(n * 1024 / w), at least 1.
func VruntimeInc(n int, w int64) int64 {
	inc := ceildiv(int64(n)*NICE_0_LOAD, w)
	if inc < 1 {
		inc = 1
	}
	return inc
}

// Timeslice is w's share of the latency window given the total weight
// sum of runnable processes, rounded up and clamped to [min, max].
func Timeslice(latency int, w, sum int64, min, max int) int {
	if sum <= 0 {
		sum = w
	}
	n := int(ceildiv(int64(latency)*w, sum))
	if n > max {
		n = max
	} else if n < min {
		n = min
	}
	return n
}
