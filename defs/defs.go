package defs

const (
	PGSIZE = 4096

	MAXCHILDREN = 64 // ids returned by getcpids

	NICE_MIN     = -20
	NICE_MAX     = 19
	NICE_DEFAULT = 0

	INITPATH = "/"
)

// Memory layout of a process image. Text starts at 0; the first page
// also holds a small data area and the initial stack, which grows down
// from PGSIZE.
const (
	TEXT    = 0
	TEXTMAX = 2048
	DATA    = 2048
	SCRATCH = 3072
	STACK   = PGSIZE
)
