package debug

type Tselector string

// ALWAYS
const (
	ALWAYS Tselector = "ALWAYS"
	ERROR  Tselector = "ERROR"
	NEVER  Tselector = "NEVER"
)

// Tests
const (
	TEST  Tselector = "TEST"
	CRASH Tselector = "CRASH"
	SIM   Tselector = "SIM"
	PERF  Tselector = "PERF"
)

// Kernel
const (
	KERNEL  Tselector = "KERNEL"
	CLOCK   Tselector = "CLOCK"
	TRAP    Tselector = "TRAP"
	SYSCALL Tselector = "SYSCALL"
)

// Processes
const (
	PROC  Tselector = "PROC"
	FORK  Tselector = "FORK"
	EXIT  Tselector = "EXIT"
	WAIT  Tselector = "WAIT"
	KILL  Tselector = "KILL"
	SLEEP Tselector = "SLEEP"
)

// Scheduler
const (
	SCHED Tselector = "SCHED"
	RR    Tselector = "RR"
	CFS   Tselector = "CFS"
	CPU   Tselector = "CPU"
)

// Collaborators
const (
	VM Tselector = "VM"
	FS Tselector = "FS"
)
