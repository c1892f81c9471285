package defs

// System call numbers. The number goes in A7, arguments in A0-A2, and
// the result comes back in A0 (-1 on failure).
const (
	SYS_FORK          = 1
	SYS_EXIT          = 2
	SYS_WAIT          = 3
	SYS_KILL          = 6
	SYS_DUP           = 10
	SYS_GETPID        = 11
	SYS_SBRK          = 12
	SYS_SLEEP         = 13
	SYS_UPTIME        = 14
	SYS_WRITE         = 16
	SYS_CLOSE         = 21
	SYS_GETPPID       = 22
	SYS_GETCPIDS      = 23
	SYS_GETYIELDCOUNT = 24
	SYS_NICE          = 25
	SYS_STARTCFS      = 26
	SYS_STOPCFS       = 27
	SYS_YIELD         = 28
)

var Sysnames = map[int64]string{
	SYS_FORK:          "fork",
	SYS_EXIT:          "exit",
	SYS_WAIT:          "wait",
	SYS_KILL:          "kill",
	SYS_DUP:           "dup",
	SYS_GETPID:        "getpid",
	SYS_SBRK:          "sbrk",
	SYS_SLEEP:         "sleep",
	SYS_UPTIME:        "uptime",
	SYS_WRITE:         "write",
	SYS_CLOSE:         "close",
	SYS_GETPPID:       "getppid",
	SYS_GETCPIDS:      "getcpids",
	SYS_GETYIELDCOUNT: "getyieldcount",
	SYS_NICE:          "nice",
	SYS_STARTCFS:      "startcfs",
	SYS_STOPCFS:       "stopcfs",
	SYS_YIELD:         "yield",
}
