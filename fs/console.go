package fs

import (
	"encoding/binary"
	"sync"

	db "cfsos/debug"
)

type Record struct {
	Pid  int
	Data []byte
}

// Console is the console device. It keeps every write so that a caller
// can inspect what user programs printed.
type Console struct {
	sync.Mutex
	recs []Record
}

func NewConsole() *Console {
	return &Console{recs: make([]Record, 0)}
}

func (c *Console) Write(pid int, b []byte) (int, error) {
	c.Lock()
	defer c.Unlock()
	d := make([]byte, len(b))
	copy(d, b)
	c.recs = append(c.recs, Record{pid, d})
	db.DPrintf(db.FS, "console pid %d: %v", pid, d)
	return len(b), nil
}

func (c *Console) Records() []Record {
	c.Lock()
	defer c.Unlock()
	rs := make([]Record, len(c.recs))
	copy(rs, c.recs)
	return rs
}

// Ints decodes the 8-byte little-endian values written by pid.
func (c *Console) Ints(pid int) []int64 {
	vs := make([]int64, 0)
	for _, r := range c.Records() {
		if r.Pid != pid {
			continue
		}
		for b := r.Data; len(b) >= 8; b = b[8:] {
			vs = append(vs, int64(binary.LittleEndian.Uint64(b)))
		}
	}
	return vs
}

// AllInts returns every value written, in order, regardless of writer.
func (c *Console) AllInts() []int64 {
	vs := make([]int64, 0)
	for _, r := range c.Records() {
		for b := r.Data; len(b) >= 8; b = b[8:] {
			vs = append(vs, int64(binary.LittleEndian.Uint64(b)))
		}
	}
	return vs
}

func (c *Console) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.recs)
}
