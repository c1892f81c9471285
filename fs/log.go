package fs

import (
	"sync"

	db "cfsos/debug"
)

// Log tracks outstanding file-system operations. Operations that may
// release inodes must be bracketed by BeginOp and EndOp.
type Log struct {
	sync.Mutex
	outstanding int
	ncommit     uint64
}

func (l *Log) BeginOp() {
	l.Lock()
	defer l.Unlock()
	l.outstanding += 1
}

func (l *Log) EndOp() {
	l.Lock()
	defer l.Unlock()
	if l.outstanding < 1 {
		db.DFatalf("endop: no outstanding op")
	}
	l.outstanding -= 1
	if l.outstanding == 0 {
		l.ncommit += 1
	}
}

func (l *Log) InOp() bool {
	l.Lock()
	defer l.Unlock()
	return l.outstanding > 0
}

func (l *Log) Ncommit() uint64 {
	l.Lock()
	defer l.Unlock()
	return l.ncommit
}
